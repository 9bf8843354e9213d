package pricing

import (
	"testing"

	"ammindexer/internal/amount"
	"ammindexer/internal/domain"

	"github.com/stretchr/testify/assert"
)

func token(id, derived string) *domain.Token {
	return &domain.Token{ID: id, DerivedNative: amount.Ptr(d(derived))}
}

// ========== TrackedVolumeUSD Tests ==========

func TestTrackedVolumeUSD(t *testing.T) {
	o, _ := newTestOracle(t, nil, DefaultParams())
	nativePrice := d("2")

	deep := &domain.Pair{ID: somePair, LiquidityProviderCount: 10}

	tests := []struct {
		name   string
		t0, t1 *domain.Token
		pair   *domain.Pair
		want   string
	}{
		{
			name: "both whitelisted averages",
			t0:   token(wftm, "1"),
			t1:   token(usdc, "0.5"),
			pair: deep,
			want: "15", // (10*2 + 10*1) / 2
		},
		{
			name: "only token0 whitelisted",
			t0:   token(wftm, "1"),
			t1:   token(unlisted, "3"),
			pair: deep,
			want: "20",
		},
		{
			name: "only token1 whitelisted",
			t0:   token(unlisted, "3"),
			t1:   token(usdc, "0.5"),
			pair: deep,
			want: "10",
		},
		{
			name: "neither whitelisted",
			t0:   token(unlisted, "3"),
			t1:   token("0x3333333333333333333333333333333333333333", "3"),
			pair: deep,
			want: "0",
		},
		{
			name: "few providers and shallow reserves",
			t0:   token(wftm, "1"),
			t1:   token(usdc, "0.5"),
			pair: &domain.Pair{ID: somePair, LiquidityProviderCount: 4, Reserve0: d("1000"), Reserve1: d("1000")},
			want: "0",
		},
		{
			name: "few providers but deep reserves",
			t0:   token(wftm, "1"),
			t1:   token(usdc, "0.5"),
			pair: &domain.Pair{ID: somePair, LiquidityProviderCount: 4, Reserve0: d("100000"), Reserve1: d("200000")},
			want: "15", // 200000 + 200000 is not below the threshold
		},
		{
			name: "few providers single side doubled",
			t0:   token(wftm, "1"),
			t1:   token(unlisted, "1"),
			pair: &domain.Pair{ID: somePair, LiquidityProviderCount: 0, Reserve0: d("99999")},
			want: "0", // 99999*2*2 < 400000
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := o.TrackedVolumeUSD(d("10"), tt.t0, d("10"), tt.t1, tt.pair, nativePrice)
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestTrackedVolumeUSD_UntrackedPair(t *testing.T) {
	p := DefaultParams()
	p.UntrackedPairs = []string{somePair}
	o, _ := newTestOracle(t, nil, p)

	got := o.TrackedVolumeUSD(d("10"), token(wftm, "1"), d("10"), token(usdc, "1"),
		&domain.Pair{ID: somePair, LiquidityProviderCount: 100}, d("2"))
	assert.True(t, got.IsZero())
}

// ========== TrackedLiquidityUSD Tests ==========

func TestTrackedLiquidityUSD(t *testing.T) {
	o, _ := newTestOracle(t, nil, DefaultParams())
	bundle := &domain.Bundle{ID: domain.BundleID, NativePrice: d("2")}

	assert.True(t, o.TrackedLiquidityUSD(d("10"), token(wftm, "1"), d("10"), token(usdc, "0.5"), bundle).Equal(d("30")))
	assert.True(t, o.TrackedLiquidityUSD(d("10"), token(wftm, "1"), d("10"), token(unlisted, "0.5"), bundle).Equal(d("40")))
	assert.True(t, o.TrackedLiquidityUSD(d("10"), token(unlisted, "1"), d("10"), token(usdc, "0.5"), bundle).Equal(d("20")))
	assert.True(t, o.TrackedLiquidityUSD(d("10"), token(wftm, "1"), d("10"), token(usdc, "0.5"), nil).IsZero())
}

func TestTrackedLiquidityUSD_AbsentDerivedPrice(t *testing.T) {
	o, _ := newTestOracle(t, nil, DefaultParams())
	bundle := &domain.Bundle{ID: domain.BundleID, NativePrice: d("2")}

	unpriced := &domain.Token{ID: usdc}
	got := o.TrackedLiquidityUSD(d("10"), token(wftm, "1"), d("10"), unpriced, bundle)
	assert.True(t, got.IsZero())

	// zero is a present price
	got = o.TrackedLiquidityUSD(d("10"), token(wftm, "1"), d("10"), token(usdc, "0"), bundle)
	assert.True(t, got.Equal(d("20")))
}
