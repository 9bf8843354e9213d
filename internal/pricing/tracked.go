package pricing

import (
	"ammindexer/internal/amount"
	"ammindexer/internal/domain"

	"github.com/shopspring/decimal"
)

func usdPrice(token *domain.Token, nativePrice decimal.Decimal) decimal.Decimal {
	return amount.OrZero(token.DerivedNative).Mul(nativePrice)
}

// TrackedVolumeUSD counts only whitelisted sides. Denylisted pairs are zero, and pairs
// with few liquidity providers stay at zero until their whitelisted reserves reach
// MinUSDNewPairs.
func (o *Oracle) TrackedVolumeUSD(
	amount0 decimal.Decimal, token0 *domain.Token,
	amount1 decimal.Decimal, token1 *domain.Token,
	pair *domain.Pair, nativePrice decimal.Decimal,
) decimal.Decimal {
	if _, ok := o.untracked[pair.ID]; ok {
		return decimal.Zero
	}

	price0 := usdPrice(token0, nativePrice)
	price1 := usdPrice(token1, nativePrice)
	wl0, wl1 := o.Whitelisted(token0.ID), o.Whitelisted(token1.ID)

	if pair.LiquidityProviderCount < o.params.MinLiquidityProviders {
		reserve0USD := pair.Reserve0.Mul(price0)
		reserve1USD := pair.Reserve1.Mul(price1)

		switch {
		case wl0 && wl1:
			if reserve0USD.Add(reserve1USD).LessThan(o.params.MinUSDNewPairs) {
				return decimal.Zero
			}
		case wl0:
			if reserve0USD.Mul(amount.Two).LessThan(o.params.MinUSDNewPairs) {
				return decimal.Zero
			}
		case wl1:
			if reserve1USD.Mul(amount.Two).LessThan(o.params.MinUSDNewPairs) {
				return decimal.Zero
			}
		}
	}

	switch {
	case wl0 && wl1:
		return amount.Div(amount0.Mul(price0).Add(amount1.Mul(price1)), amount.Two)
	case wl0:
		return amount0.Mul(price0)
	case wl1:
		return amount1.Mul(price1)
	}
	return decimal.Zero
}

// TrackedLiquidityUSD values whitelisted reserves. A token whose derived price was
// never set excludes its branch; a zero price counts as zero.
func (o *Oracle) TrackedLiquidityUSD(
	amount0 decimal.Decimal, token0 *domain.Token,
	amount1 decimal.Decimal, token1 *domain.Token,
	bundle *domain.Bundle,
) decimal.Decimal {
	if bundle == nil {
		return decimal.Zero
	}

	wl0, wl1 := o.Whitelisted(token0.ID), o.Whitelisted(token1.ID)
	has0, has1 := token0.DerivedNative != nil, token1.DerivedNative != nil
	price0 := usdPrice(token0, bundle.NativePrice)
	price1 := usdPrice(token1, bundle.NativePrice)

	switch {
	case wl0 && wl1 && has0 && has1:
		return amount0.Mul(price0).Add(amount1.Mul(price1))
	case wl0 && !wl1 && has0:
		return amount0.Mul(price0).Mul(amount.Two)
	case !wl0 && wl1 && has1:
		return amount1.Mul(price1).Mul(amount.Two)
	}
	return decimal.Zero
}
