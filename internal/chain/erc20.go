package chain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"ammindexer/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

// nullBytes32 is what broken tokens return instead of a symbol or name.
var nullBytes32 = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000001")

// Symbol tries string first, then bytes32.
func (c *Client) Symbol(ctx context.Context, token string) (string, error) {
	return c.stringOrBytes32(ctx, token, "symbol")
}

func (c *Client) Name(ctx context.Context, token string) (string, error) {
	return c.stringOrBytes32(ctx, token, "name")
}

func (c *Client) Decimals(ctx context.Context, token string) (int32, error) {
	out, err := c.call(ctx, erc20ABI, common.HexToAddress(token), "decimals")
	if err != nil {
		return 0, err
	}
	v, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals of %s: unexpected type %T", token, out[0])
	}
	return int32(v), nil
}

func (c *Client) TotalSupply(ctx context.Context, token string) (*big.Int, error) {
	return c.uint256(ctx, common.HexToAddress(token), "totalSupply")
}

// BalanceOf reads an LP balance from the pool contract as of block; block 0
// reads the latest state. Blocks older than the node's state window need an
// archive node.
func (c *Client) BalanceOf(ctx context.Context, pool, holder string, block uint64) (*big.Int, error) {
	var at *big.Int
	if block > 0 {
		at = new(big.Int).SetUint64(block)
	}
	return c.uint256At(ctx, at, common.HexToAddress(pool), "balanceOf", common.HexToAddress(holder))
}

func (c *Client) uint256(ctx context.Context, to common.Address, method string, args ...interface{}) (*big.Int, error) {
	return c.uint256At(ctx, nil, to, method, args...)
}

func (c *Client) uint256At(ctx context.Context, block *big.Int, to common.Address, method string, args ...interface{}) (*big.Int, error) {
	out, err := c.callAt(ctx, block, erc20ABI, to, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected type %T", method, out[0])
	}
	return v, nil
}

func (c *Client) stringOrBytes32(ctx context.Context, token, method string) (string, error) {
	to := common.HexToAddress(token)

	out, err := c.call(ctx, erc20ABI, to, method)
	if err == nil {
		if s, ok := out[0].(string); ok {
			return s, nil
		}
	}

	out, bytesErr := c.call(ctx, erc20BytesABI, to, method)
	if bytesErr != nil {
		if err == nil {
			err = bytesErr
		}
		return "", err
	}

	raw, ok := out[0].([32]byte)
	if !ok {
		return "", fmt.Errorf("%s of %s: unexpected type %T", method, token, out[0])
	}
	if common.Hash(raw) == nullBytes32 {
		return "", fmt.Errorf("%s of %s: null value", method, domain.NormalizeAddress(token))
	}

	return string(bytes.TrimRight(raw[:], "\x00")), nil
}

// GetPair asks the factory for the pool of (tokenA, tokenB, stable). A missing
// pool comes back as the zero address.
func (c *Client) GetPair(ctx context.Context, factory, tokenA, tokenB string, stable bool) (string, error) {
	out, err := c.call(ctx, factoryABI, common.HexToAddress(factory), "getPair",
		common.HexToAddress(tokenA), common.HexToAddress(tokenB), stable)
	if err != nil {
		return "", err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("getPair: unexpected type %T", out[0])
	}
	return domain.AddressID(addr), nil
}

// FactoryAccessor binds GetPair to one factory address.
type FactoryAccessor struct {
	client  *Client
	factory string
}

func NewFactoryAccessor(c *Client, factory string) *FactoryAccessor {
	return &FactoryAccessor{client: c, factory: factory}
}

func (f *FactoryAccessor) GetPair(ctx context.Context, tokenA, tokenB string, stable bool) (string, error) {
	return f.client.GetPair(ctx, f.factory, tokenA, tokenB, stable)
}
