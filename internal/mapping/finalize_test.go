package mapping

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ammindexer/internal/domain"
	"ammindexer/internal/stores"
	"ammindexer/internal/tokens"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swapEvent(tx string) *domain.SwapEvent {
	return &domain.SwapEvent{
		EventMeta:  meta(tx, 5, pool),
		Sender:     router,
		Amount0In:  e18(10),
		Amount1In:  e6(0),
		Amount0Out: e18(0),
		Amount1Out: e6(5),
		To:         alice,
	}
}

func TestSwap_ThinPoolFallsBackToDerivedUSD(t *testing.T) {
	ctx := context.Background()
	hs := newHarness(t)
	hs.createPair(t)
	hs.sync(t, tx2, e18(1000), e6(500))
	hs.sync(t, tx2, e18(1000), e6(500))

	require.NoError(t, hs.h.Handle(ctx, swapEvent(tx3)))

	tx := hs.tx(t, tx3)
	require.Len(t, tx.Swaps, 1)

	swap, err := hs.repo.Swap(ctx, tx.Swaps[0])
	require.NoError(t, err)
	assert.Equal(t, origin, swap.From)
	assert.Equal(t, router, swap.Sender)
	assert.Equal(t, alice, swap.To)
	assert.True(t, swap.Amount0In.Equal(d("10")))
	assert.True(t, swap.Amount1Out.Equal(d("5")))
	// (10*1 + 5*2) / 2 native at 0.5 USD
	assert.True(t, swap.AmountUSD.Equal(d("5")), swap.AmountUSD.String())

	factory, err := hs.repo.Factory(ctx, factoryAddr)
	require.NoError(t, err)
	assert.True(t, factory.TotalVolumeUSD.IsZero())
	assert.True(t, factory.TotalVolumeNative.IsZero())
	assert.True(t, factory.UntrackedVolumeUSD.Equal(d("5")))
	assert.Equal(t, uint64(1), factory.TxCount)

	token0, err := hs.repo.Token(ctx, wftm)
	require.NoError(t, err)
	assert.True(t, token0.TradeVolume.Equal(d("10")))
	assert.Equal(t, uint64(1), token0.TxCount)

	pair := hs.pair(t)
	assert.True(t, pair.VolumeToken1.Equal(d("5")))
	assert.True(t, pair.VolumeUSD.IsZero())
	assert.True(t, pair.UntrackedVolumeUSD.Equal(d("5")))

	assert.Equal(t, []domain.Kind{domain.KindSwap}, hs.recorder.kinds())
}

func TestSwap_TrackedVolume(t *testing.T) {
	ctx := context.Background()
	params := testParams()
	params.MinLiquidityProviders = 0
	hs := newHarnessWithParams(t, params)
	hs.createPair(t)
	hs.sync(t, tx2, e18(1000), e6(500))
	hs.sync(t, tx2, e18(1000), e6(500))

	require.NoError(t, hs.h.Handle(ctx, swapEvent(tx3)))
	require.NoError(t, hs.h.Handle(ctx, swapEvent(tx3)))

	tx := hs.tx(t, tx3)
	assert.Equal(t, domain.RecordLog{domain.RecordID(tx3, 0), domain.RecordID(tx3, 1)}, tx.Swaps)

	factory, err := hs.repo.Factory(ctx, factoryAddr)
	require.NoError(t, err)
	assert.True(t, factory.TotalVolumeUSD.Equal(d("10")))
	assert.True(t, factory.TotalVolumeNative.Equal(d("20")))
	assert.Equal(t, uint64(2), factory.TxCount)
}

func TestSwap_UnknownPairIsNotIndexed(t *testing.T) {
	hs := newHarness(t)
	assert.Equal(t, OutcomeNotIndexed, Classify(hs.h.Handle(context.Background(), swapEvent(tx3))))
}

func TestMint_OrderingViolations(t *testing.T) {
	ctx := context.Background()
	hs := newHarness(t)
	hs.createPair(t)

	notify := &domain.MintEvent{EventMeta: meta(tx2, 9, pool), Sender: router, Amount0: e18(1), Amount1: e6(1)}

	assert.Equal(t, OutcomeOrderingViolation, Classify(hs.h.Handle(ctx, notify)))

	hs.mintSequence(t)
	assert.Equal(t, OutcomeOrderingViolation, Classify(hs.h.Handle(ctx, notify)))
}

func TestBurn_OrderingViolations(t *testing.T) {
	ctx := context.Background()
	hs := newHarness(t)
	hs.createPair(t)
	hs.mintSequence(t)

	notify := &domain.BurnEvent{EventMeta: meta(tx2, 9, pool), Sender: router, Amount0: e18(1), Amount1: e6(1), To: alice}

	// tx2 only holds mints
	assert.Equal(t, OutcomeOrderingViolation, Classify(hs.h.Handle(ctx, notify)))

	require.NoError(t, hs.transfer(t, tx3, 0, pool, domain.AddressZero, e18(1)))
	notify.EventMeta = meta(tx3, 1, pool)
	require.NoError(t, hs.h.Handle(ctx, notify))
	assert.Equal(t, OutcomeOrderingViolation, Classify(hs.h.Handle(ctx, notify)))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, OutcomeApplied},
		{fmt.Errorf("%w: lock", ErrIgnored), OutcomeIgnored},
		{fmt.Errorf("load pair x: %w", stores.ErrNotFound), OutcomeNotIndexed},
		{fmt.Errorf("%w: no mints", ErrOrderingViolation), OutcomeOrderingViolation},
		{fmt.Errorf("resolve token0: %w", tokens.ErrMetadataUnavailable), OutcomeMetadataUnavailable},
		{errors.New("disk full"), OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
