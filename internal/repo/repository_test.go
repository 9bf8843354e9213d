package repo

import (
	"context"
	"testing"

	"ammindexer/internal/domain"
	"ammindexer/internal/stores"
	"ammindexer/internal/stores/kv"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	s := kv.NewMemory()
	t.Cleanup(func() { _ = s.Close() })
	return New(s)
}

// ========== Load/Save Tests ==========

func TestRepository_PairRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	_, err := r.Pair(ctx, "0xpair")
	require.ErrorIs(t, err, stores.ErrNotFound)

	in := &domain.Pair{
		ID:                     "0xpair",
		Token0:                 "0xa",
		Token1:                 "0xb",
		Reserve0:               decimal.RequireFromString("123.000000000000000001"),
		Token0Price:            decimal.RequireFromString("0.33333333333333333333333333333333"),
		LiquidityProviderCount: 3,
	}
	require.NoError(t, r.Save(ctx, in))

	out, err := r.Pair(ctx, "0xpair")
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, uint64(3), out.LiquidityProviderCount)
	assert.True(t, in.Reserve0.Equal(out.Reserve0))
	assert.True(t, in.Token0Price.Equal(out.Token0Price))
}

func TestRepository_NullableFields(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	m := &domain.Mint{ID: "0xtx-0", Transaction: "0xtx", Liquidity: decimal.NewFromInt(5)}
	require.NoError(t, r.Save(ctx, m))

	got, err := r.Mint(ctx, "0xtx-0")
	require.NoError(t, err)
	assert.Nil(t, got.Sender)
	assert.Nil(t, got.Amount0)
	assert.False(t, got.Complete())

	tok := &domain.Token{ID: "0xa"}
	require.NoError(t, r.Save(ctx, tok))
	gotTok, err := r.Token(ctx, "0xa")
	require.NoError(t, err)
	assert.Nil(t, gotTok.DerivedNative)
}

func TestRepository_KindsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	require.NoError(t, r.SaveAll(ctx,
		&domain.Mint{ID: "0xtx-0", To: "0xminter"},
		&domain.Burn{ID: "0xtx-0", NeedsComplete: true},
	))

	m, err := r.Mint(ctx, "0xtx-0")
	require.NoError(t, err)
	assert.Equal(t, "0xminter", m.To)

	b, err := r.Burn(ctx, "0xtx-0")
	require.NoError(t, err)
	assert.True(t, b.NeedsComplete)
}

func TestRepository_Remove(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	require.NoError(t, r.Save(ctx, &domain.Mint{ID: "0xtx-0"}))
	require.NoError(t, r.Remove(ctx, domain.KindMint, "0xtx-0"))

	_, err := r.Mint(ctx, "0xtx-0")
	assert.ErrorIs(t, err, stores.ErrNotFound)
}

func TestRepository_Transaction(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	tx := &domain.Transaction{ID: "0xtx", BlockNumber: 10}
	tx.Mints.Append("0xtx-0")
	tx.Burns.Append("0xtx-0")
	require.NoError(t, r.Save(ctx, tx))

	got, err := r.Transaction(ctx, "0xtx")
	require.NoError(t, err)
	assert.Equal(t, domain.RecordLog{"0xtx-0"}, got.Mints)
	assert.Equal(t, domain.RecordLog{"0xtx-0"}, got.Burns)
	assert.True(t, got.Swaps.Empty())
}

func TestRepository_Singletons(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	require.NoError(t, r.Save(ctx, &domain.Bundle{ID: domain.BundleID, NativePrice: decimal.NewFromInt(2)}))
	b, err := r.Bundle(ctx)
	require.NoError(t, err)
	assert.True(t, b.NativePrice.Equal(decimal.NewFromInt(2)))

	_, err = r.Factory(ctx, "0xfactory")
	assert.ErrorIs(t, err, stores.ErrNotFound)
}
