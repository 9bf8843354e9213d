package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const factoryABIJSON = `[
  {"anonymous":false,"name":"PairCreated","type":"event","inputs":[
    {"indexed":true,"name":"token0","type":"address"},
    {"indexed":true,"name":"token1","type":"address"},
    {"indexed":false,"name":"stable","type":"bool"},
    {"indexed":false,"name":"pair","type":"address"},
    {"indexed":false,"name":"","type":"uint256"}]},
  {"name":"getPair","type":"function","stateMutability":"view","inputs":[
    {"name":"tokenA","type":"address"},
    {"name":"tokenB","type":"address"},
    {"name":"stable","type":"bool"}],
   "outputs":[{"name":"","type":"address"}]}
]`

const pairABIJSON = `[
  {"anonymous":false,"name":"Transfer","type":"event","inputs":[
    {"indexed":true,"name":"from","type":"address"},
    {"indexed":true,"name":"to","type":"address"},
    {"indexed":false,"name":"amount","type":"uint256"}]},
  {"anonymous":false,"name":"Sync","type":"event","inputs":[
    {"indexed":false,"name":"reserve0","type":"uint256"},
    {"indexed":false,"name":"reserve1","type":"uint256"}]},
  {"anonymous":false,"name":"Mint","type":"event","inputs":[
    {"indexed":true,"name":"sender","type":"address"},
    {"indexed":false,"name":"amount0","type":"uint256"},
    {"indexed":false,"name":"amount1","type":"uint256"}]},
  {"anonymous":false,"name":"Burn","type":"event","inputs":[
    {"indexed":true,"name":"sender","type":"address"},
    {"indexed":false,"name":"amount0","type":"uint256"},
    {"indexed":false,"name":"amount1","type":"uint256"},
    {"indexed":true,"name":"to","type":"address"}]},
  {"anonymous":false,"name":"Swap","type":"event","inputs":[
    {"indexed":true,"name":"sender","type":"address"},
    {"indexed":false,"name":"amount0In","type":"uint256"},
    {"indexed":false,"name":"amount1In","type":"uint256"},
    {"indexed":false,"name":"amount0Out","type":"uint256"},
    {"indexed":false,"name":"amount1Out","type":"uint256"},
    {"indexed":true,"name":"to","type":"address"}]}
]`

const erc20ABIJSON = `[
  {"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

// some early tokens return bytes32 from symbol() and name()
const erc20BytesABIJSON = `[
  {"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
  {"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]}
]`

var (
	factoryABI    = mustABI(factoryABIJSON)
	pairABI       = mustABI(pairABIJSON)
	erc20ABI      = mustABI(erc20ABIJSON)
	erc20BytesABI = mustABI(erc20BytesABIJSON)
)

func mustABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic("chain: invalid abi: " + err.Error())
	}
	return parsed
}
