//go:build ignore

// Run: go run ./build-tools/replay.go -rpc http://localhost:8545 -nats nats://localhost:4222 -subject chain.fantom.logs -from 3000000 -to 3010000

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/nats-io/nats.go"
)

// envelope mirrors chain.LogEnvelope.
type envelope struct {
	Log            types.Log `json:"log"`
	BlockTimestamp uint64    `json:"blockTimestamp"`
	TxFrom         string    `json:"txFrom"`
}

var signatures = []string{
	"PairCreated(address,address,bool,address,uint256)",
	"Transfer(address,address,uint256)",
	"Sync(uint256,uint256)",
	"Mint(address,uint256,uint256)",
	"Burn(address,uint256,uint256,address)",
	"Swap(address,uint256,uint256,uint256,uint256,address)",
}

func main() {
	var (
		rpcURL  = flag.String("rpc", "http://localhost:8545", "node rpc url")
		natsURL = flag.String("nats", nats.DefaultURL, "nats url")
		subject = flag.String("subject", "chain.fantom.logs", "nats subject")
		from    = flag.Uint64("from", 0, "first block")
		to      = flag.Uint64("to", 0, "last block, inclusive")
		step    = flag.Uint64("step", 2000, "blocks per eth_getLogs call")
	)
	flag.Parse()

	if *to < *from {
		fmt.Println("-to must not be below -from")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eth, err := ethclient.DialContext(ctx, *rpcURL)
	if err != nil {
		fmt.Printf("rpc dial error: %v\n", err)
		os.Exit(1)
	}
	defer eth.Close()

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		fmt.Printf("chain id error: %v\n", err)
		os.Exit(1)
	}
	signer := types.LatestSignerForChainID(chainID)

	nc, err := nats.Connect(*natsURL, nats.Name("ammindexer-replay"))
	if err != nil {
		fmt.Printf("nats connect error: %v\n", err)
		os.Exit(1)
	}
	defer nc.Drain()

	topics := make([]common.Hash, len(signatures))
	for i, s := range signatures {
		topics[i] = crypto.Keccak256Hash([]byte(s))
	}

	timestamps := make(map[uint64]uint64)
	senders := make(map[common.Hash]string)
	published := 0

	for start := *from; start <= *to; start += *step {
		end := min(start+*step-1, *to)

		logs, err := eth.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(start),
			ToBlock:   new(big.Int).SetUint64(end),
			Topics:    [][]common.Hash{topics},
		})
		if err != nil {
			fmt.Printf("get logs %d-%d error: %v\n", start, end, err)
			os.Exit(1)
		}

		for _, lg := range logs {
			ts, ok := timestamps[lg.BlockNumber]
			if !ok {
				h, err := eth.HeaderByNumber(ctx, new(big.Int).SetUint64(lg.BlockNumber))
				if err != nil {
					fmt.Printf("header %d error: %v\n", lg.BlockNumber, err)
					os.Exit(1)
				}
				ts = h.Time
				timestamps[lg.BlockNumber] = ts
			}

			sender, ok := senders[lg.TxHash]
			if !ok {
				tx, _, err := eth.TransactionByHash(ctx, lg.TxHash)
				if err != nil {
					fmt.Printf("tx %s error: %v\n", lg.TxHash.Hex(), err)
					os.Exit(1)
				}
				addr, err := types.Sender(signer, tx)
				if err != nil {
					fmt.Printf("tx %s sender error: %v\n", lg.TxHash.Hex(), err)
					os.Exit(1)
				}
				sender = addr.Hex()
				senders[lg.TxHash] = sender
			}

			b, err := json.Marshal(envelope{Log: lg, BlockTimestamp: ts, TxFrom: sender})
			if err != nil {
				fmt.Printf("marshal error: %v\n", err)
				os.Exit(1)
			}
			if err = nc.Publish(*subject, b); err != nil {
				fmt.Printf("publish error: %v\n", err)
				os.Exit(1)
			}
			published++
		}

		fmt.Printf("blocks %d-%d: %d logs (total %d)\n", start, end, len(logs), published)
		clear(senders)
	}

	if err = nc.Flush(); err != nil {
		fmt.Printf("flush error: %v\n", err)
	}
}
