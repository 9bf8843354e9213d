package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"ammindexer/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-retryablehttp"
	"gitlab.com/nevasik7/alerting/logger"
	"golang.org/x/time/rate"
)

// ErrReverted means the contract rejected the call; it is never retried.
var ErrReverted = errors.New("execution reverted")

// ContractCaller is the subset of ethclient.Client used for eth_call.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// CallObserver counts contract calls by method and result.
type CallObserver interface {
	RPCCall(method, result string)
}

type noopObserver struct{}

func (noopObserver) RPCCall(string, string) {}

type Client struct {
	log        logger.Logger
	caller     ContractCaller
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries uint64
	observer   CallObserver
	closeF     func()
}

// Dial connects to the node over a retrying HTTP transport.
func Dial(ctx context.Context, log logger.Logger, cfg *config.ChainConfig, obs CallObserver) (*Client, error) {
	httpClient := newHTTPClient(cfg)

	rpcClient, err := rpc.DialOptions(ctx, cfg.RPCURL, rpc.WithHTTPClient(httpClient.StandardClient()))
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", cfg.RPCURL, err)
	}
	eth := ethclient.NewClient(rpcClient)

	c := NewClient(log, eth, cfg, obs)
	c.closeF = eth.Close
	return c, nil
}

// NewClient wraps an existing caller, used directly by tests.
func NewClient(log logger.Logger, caller ContractCaller, cfg *config.ChainConfig, obs CallObserver) *Client {
	if obs == nil {
		obs = noopObserver{}
	}

	limit := rate.Inf
	burst := 1
	if cfg.RateLimit.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RateLimit.RequestsPerSec)
	}
	if cfg.RateLimit.Burst > 0 {
		burst = cfg.RateLimit.Burst
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		log:        log,
		caller:     caller,
		limiter:    rate.NewLimiter(limit, burst),
		timeout:    timeout,
		maxRetries: uint64(max(cfg.MaxRetries, 0)),
		observer:   obs,
		closeF:     func() {},
	}
}

func newHTTPClient(cfg *config.ChainConfig) *retryablehttp.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.HTTP.MaxIdleConns > 0 {
		transport.MaxIdleConns = cfg.HTTP.MaxIdleConns
		transport.MaxIdleConnsPerHost = cfg.HTTP.MaxIdleConns
	}
	if cfg.HTTP.IdleConnTimeout > 0 {
		transport.IdleConnTimeout = cfg.HTTP.IdleConnTimeout
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	if cfg.HTTP.RetryMax > 0 {
		rc.RetryMax = cfg.HTTP.RetryMax
	}
	rc.HTTPClient = &http.Client{Transport: transport}
	rc.Logger = nil

	return rc
}

func (c *Client) Close() {
	c.closeF()
}

func (c *Client) call(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	return c.callAt(ctx, nil, contract, to, method, args...)
}

// callAt packs method, runs eth_call against the state after block (nil is
// latest) and unpacks the outputs. Reverts fail immediately; transport errors
// are retried with backoff.
func (c *Client) callAt(ctx context.Context, block *big.Int, contract abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	input, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: input}

	var out []byte
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		res, err := c.caller.CallContract(callCtx, msg, block)
		if err != nil {
			if isRevert(err) {
				return backoff.Permanent(fmt.Errorf("%w: %s", ErrReverted, err.Error()))
			}
			return err
		}
		if len(res) == 0 {
			// no code at the address, or a function the contract lacks
			return backoff.Permanent(fmt.Errorf("%w: empty return data", ErrReverted))
		}
		out = res
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)
	if err = backoff.Retry(op, policy); err != nil {
		c.observer.RPCCall(method, callResult(err))
		return nil, fmt.Errorf("call %s on %s: %w", method, strings.ToLower(to.Hex()), err)
	}
	c.observer.RPCCall(method, "ok")

	values, err := contract.Unpack(method, out)
	if err != nil {
		c.observer.RPCCall(method, "decode_error")
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func isRevert(err error) bool {
	var de rpc.DataError
	if errors.As(err, &de) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "revert")
}

func callResult(err error) string {
	if errors.Is(err, ErrReverted) {
		return "reverted"
	}
	return "error"
}
