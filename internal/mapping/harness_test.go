package mapping

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"ammindexer/internal/domain"
	"ammindexer/internal/pricing"
	"ammindexer/internal/repo"
	"ammindexer/internal/stores/kv"
	"ammindexer/internal/tokens"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	loggerCfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"
)

// ========== Test Helpers ==========

const (
	factoryAddr = "0x117f6f61e797e411ea92f0ea1555c397ecf17939"
	wftm        = "0x21be370d5312f44cb42ce377bc9b8a0cef1a4c83"
	usdc        = "0x04068da6c83afcfa0e13ba15a6696662335d5b75"
	noDecimals  = "0x9999999999999999999999999999999999999999"
	pool        = "0x2b4c76d0dc16be1c31d4c1dc53bf9b45987fc75c"
	alice       = "0x000000000000000000000000000000000000a11c"
	feeTo       = "0x000000000000000000000000000000000000fee0"
	router      = "0x00000000000000000000000000000000000000e0"
	origin      = "0x0000000000000000000000000000000000000077"

	tx1 = "0x1111111111111111111111111111111111111111111111111111111111111111"
	tx2 = "0x2222222222222222222222222222222222222222222222222222222222222222"
	tx3 = "0x3333333333333333333333333333333333333333333333333333333333333333"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// e18 returns n * 10^18.
func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func e6(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000))
}

func newTestLogger() logger.Logger {
	return logger.New(loggerCfg.LoggerCfg{
		Level:  "error",
		Format: "json",
	})
}

type fakePools struct {
	balances map[string]*big.Int
	blocks   []uint64
	failures int
}

func (f *fakePools) BalanceOf(_ context.Context, pool, holder string, block uint64) (*big.Int, error) {
	f.blocks = append(f.blocks, block)
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("connection reset")
	}
	if b, ok := f.balances[pool+"/"+holder]; ok {
		return b, nil
	}
	return new(big.Int), nil
}

type fakeSources struct {
	registered []string
}

func (f *fakeSources) Register(_ context.Context, addr string) error {
	f.registered = append(f.registered, addr)
	return nil
}

type fakeRecorder struct {
	recorded []domain.Entity
}

func (f *fakeRecorder) Record(_ context.Context, e domain.Entity) {
	f.recorded = append(f.recorded, e)
}

func (f *fakeRecorder) kinds() []domain.Kind {
	out := make([]domain.Kind, 0, len(f.recorded))
	for _, e := range f.recorded {
		out = append(out, e.Kind())
	}
	return out
}

type fakeFactory struct{}

func (fakeFactory) GetPair(_ context.Context, a, b string, _ bool) (string, error) {
	if (a == usdc && b == wftm) || (a == wftm && b == usdc) {
		return pool, nil
	}
	return domain.AddressZero, nil
}

type harness struct {
	h        *Handlers
	repo     *repo.Repository
	pools    *fakePools
	sources  *fakeSources
	recorder *fakeRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithParams(t, testParams())
}

// testParams prices WFTM from the test pool itself.
func testParams() pricing.Params {
	p := pricing.DefaultParams()
	p.Anchors = []pricing.Anchor{{Pair: pool, StableIsToken0: false}}
	return p
}

func newHarnessWithParams(t *testing.T, params pricing.Params) *harness {
	t.Helper()

	s := kv.NewMemory()
	t.Cleanup(func() { _ = s.Close() })
	r := repo.New(s)
	log := newTestLogger()

	registry := tokens.NewRegistry(r,
		tokens.NewStaticResolver([]tokens.StaticDefinition{
			{Address: wftm, Symbol: "wFTM", Name: "wFTM", Decimals: 18},
			{Address: usdc, Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		}),
		tokens.FallbackResolver{},
	)

	hs := &harness{
		repo:     r,
		pools:    &fakePools{balances: map[string]*big.Int{}},
		sources:  &fakeSources{},
		recorder: &fakeRecorder{},
	}
	hs.h = New(Deps{
		Log:            log,
		Repo:           r,
		Tokens:         registry,
		Oracle:         pricing.NewOracle(log, r, fakeFactory{}, params),
		Pools:          hs.pools,
		Sources:        hs.sources,
		Recorder:       hs.recorder,
		FactoryAddress: factoryAddr,
	})
	return hs
}

func meta(tx string, logIndex uint64, address string) domain.EventMeta {
	return domain.EventMeta{
		ChainID:     250,
		Address:     address,
		TxHash:      tx,
		TxFrom:      origin,
		LogIndex:    logIndex,
		BlockNumber: 100,
		Timestamp:   1_650_000_000,
	}
}

func (hs *harness) createPair(t *testing.T) {
	t.Helper()
	err := hs.h.Handle(context.Background(), &domain.PairCreatedEvent{
		EventMeta: meta(tx1, 0, factoryAddr),
		Token0:    common.HexToAddress(wftm).Hex(), // checksummed input must normalize
		Token1:    usdc,
		Pair:      pool,
	})
	require.NoError(t, err)
}

func (hs *harness) transfer(t *testing.T, tx string, logIndex uint64, from, to string, value *big.Int) error {
	t.Helper()
	return hs.h.Handle(context.Background(), &domain.TransferEvent{
		EventMeta: meta(tx, logIndex, pool),
		From:      from,
		To:        to,
		Value:     value,
	})
}

func (hs *harness) sync(t *testing.T, tx string, r0, r1 *big.Int) {
	t.Helper()
	require.NoError(t, hs.h.Handle(context.Background(), &domain.SyncEvent{
		EventMeta: meta(tx, 9, pool),
		Reserve0:  r0,
		Reserve1:  r1,
	}))
}

func (hs *harness) pair(t *testing.T) *domain.Pair {
	t.Helper()
	p, err := hs.repo.Pair(context.Background(), pool)
	require.NoError(t, err)
	return p
}

func (hs *harness) tx(t *testing.T, hash string) *domain.Transaction {
	t.Helper()
	tx, err := hs.repo.Transaction(context.Background(), hash)
	require.NoError(t, err)
	return tx
}
