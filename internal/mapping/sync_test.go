package mapping

import (
	"context"
	"testing"

	"ammindexer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSync_ZeroReservesArePriceSafe(t *testing.T) {
	hs := newHarness(t)
	hs.createPair(t)

	hs.sync(t, tx2, e18(0), e6(0))

	pair := hs.pair(t)
	assert.True(t, pair.Token0Price.IsZero())
	assert.True(t, pair.Token1Price.IsZero())
	assert.True(t, pair.TrackedReserveNative.IsZero())

	hs.sync(t, tx2, e18(7), e6(0))

	pair = hs.pair(t)
	assert.True(t, pair.Reserve0.Equal(d("7")))
	assert.True(t, pair.Token0Price.IsZero())
	assert.True(t, pair.Token1Price.IsZero())
}

func TestSync_RecomputesPricesAndTotals(t *testing.T) {
	ctx := context.Background()
	hs := newHarness(t)
	hs.createPair(t)

	hs.sync(t, tx2, e18(1000), e6(500))

	pair := hs.pair(t)
	assert.True(t, pair.Reserve0.Equal(d("1000")))
	assert.True(t, pair.Reserve1.Equal(d("500")))
	assert.True(t, pair.Token0Price.Equal(d("2")))
	assert.True(t, pair.Token1Price.Equal(d("0.5")))

	bundle, err := hs.repo.Bundle(ctx)
	require.NoError(t, err)
	assert.True(t, bundle.NativePrice.Equal(d("0.5")), bundle.NativePrice.String())

	// USDC has no qualifying reference pair until the pool's native reserve is stored
	assert.True(t, pair.ReserveNative.Equal(d("1000")))
	assert.True(t, pair.ReserveUSD.Equal(d("500")))
	assert.True(t, pair.TrackedReserveNative.Equal(d("1000")))

	factory, err := hs.repo.Factory(ctx, factoryAddr)
	require.NoError(t, err)
	assert.True(t, factory.TotalLiquidityNative.Equal(d("1000")))
	assert.True(t, factory.TotalLiquidityUSD.Equal(d("500")))
}

func TestSync_SubtractsBeforeReadding(t *testing.T) {
	ctx := context.Background()
	hs := newHarness(t)
	hs.createPair(t)

	hs.sync(t, tx2, e18(1000), e6(500))
	hs.sync(t, tx3, e18(1000), e6(500))

	usdcToken, err := hs.repo.Token(ctx, usdc)
	require.NoError(t, err)
	require.NotNil(t, usdcToken.DerivedNative)
	assert.True(t, usdcToken.DerivedNative.Equal(d("2")))
	assert.True(t, usdcToken.TotalLiquidity.Equal(d("500")))

	wftmToken, err := hs.repo.Token(ctx, wftm)
	require.NoError(t, err)
	assert.True(t, wftmToken.DerivedNative.Equal(d("1")))
	assert.True(t, wftmToken.TotalLiquidity.Equal(d("1000")))

	pair := hs.pair(t)
	assert.True(t, pair.ReserveNative.Equal(d("2000")))
	assert.True(t, pair.TrackedReserveNative.Equal(d("2000")))

	factory, err := hs.repo.Factory(ctx, factoryAddr)
	require.NoError(t, err)
	assert.True(t, factory.TotalLiquidityNative.Equal(d("2000")))
	assert.True(t, factory.TotalLiquidityUSD.Equal(d("1000")))
}

func TestSync_UnknownPairIsNotIndexed(t *testing.T) {
	hs := newHarness(t)

	err := hs.h.Handle(context.Background(), &domain.SyncEvent{
		EventMeta: meta(tx2, 0, pool),
		Reserve0:  e18(1),
		Reserve1:  e6(1),
	})
	assert.Equal(t, OutcomeNotIndexed, Classify(err))
}
