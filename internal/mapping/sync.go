package mapping

import (
	"context"

	"ammindexer/internal/amount"
	"ammindexer/internal/domain"
)

// Sync replaces a pair's reserves and moves its contribution to the global
// and per-token liquidity totals: subtract the old one, recompute, add the new one.
func (h *Handlers) Sync(ctx context.Context, ev *domain.SyncEvent) error {
	pc, err := h.loadPairContext(ctx, domain.NormalizeAddress(ev.Address))
	if err != nil {
		return err
	}
	pair, token0, token1, factory, bundle := pc.pair, pc.token0, pc.token1, pc.factory, pc.bundle

	factory.TotalLiquidityNative = factory.TotalLiquidityNative.Sub(pair.TrackedReserveNative)
	token0.TotalLiquidity = token0.TotalLiquidity.Sub(pair.Reserve0)
	token1.TotalLiquidity = token1.TotalLiquidity.Sub(pair.Reserve1)

	pair.Reserve0 = amount.ToDecimal(ev.Reserve0, token0.Decimals)
	pair.Reserve1 = amount.ToDecimal(ev.Reserve1, token1.Decimals)
	pair.Token0Price = amount.Div(pair.Reserve0, pair.Reserve1)
	pair.Token1Price = amount.Div(pair.Reserve1, pair.Reserve0)

	// the oracle reads anchor pairs from the store
	if err = h.repo.Save(ctx, pair); err != nil {
		return err
	}

	if bundle.NativePrice, err = h.oracle.ReferencePriceUSD(ctx); err != nil {
		return err
	}
	if err = h.repo.Save(ctx, bundle); err != nil {
		return err
	}

	derived0, err := h.oracle.FindReferencePricePerToken(ctx, token0)
	if err != nil {
		return err
	}
	derived1, err := h.oracle.FindReferencePricePerToken(ctx, token1)
	if err != nil {
		return err
	}
	token0.DerivedNative = amount.Ptr(derived0)
	token1.DerivedNative = amount.Ptr(derived1)

	trackedLiquidityNative := amount.Div(
		h.oracle.TrackedLiquidityUSD(pair.Reserve0, token0, pair.Reserve1, token1, bundle),
		bundle.NativePrice,
	)

	pair.TrackedReserveNative = trackedLiquidityNative
	pair.ReserveNative = pair.Reserve0.Mul(derived0).Add(pair.Reserve1.Mul(derived1))
	pair.ReserveUSD = pair.ReserveNative.Mul(bundle.NativePrice)

	factory.TotalLiquidityNative = factory.TotalLiquidityNative.Add(trackedLiquidityNative)
	factory.TotalLiquidityUSD = factory.TotalLiquidityNative.Mul(bundle.NativePrice)

	token0.TotalLiquidity = token0.TotalLiquidity.Add(pair.Reserve0)
	token1.TotalLiquidity = token1.TotalLiquidity.Add(pair.Reserve1)

	return h.repo.SaveAll(ctx, pair, factory, token0, token1)
}
