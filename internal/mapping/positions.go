package mapping

import (
	"context"
	"fmt"

	"ammindexer/internal/amount"
	"ammindexer/internal/domain"
)

// refreshPosition loads or opens the holder's position in pair, sets its balance
// from the pool and appends a snapshot. pair is saved when a new provider appears.
func (h *Handlers) refreshPosition(ctx context.Context, pair *domain.Pair, holder string, meta domain.EventMeta) error {
	id := domain.PositionID(pair.ID, holder)

	pos, err := h.repo.LiquidityPosition(ctx, id)
	if err != nil {
		if !isNotFound(err) {
			return err
		}

		pair.LiquidityProviderCount++
		if err = h.repo.Save(ctx, pair); err != nil {
			return err
		}
		pos = &domain.LiquidityPosition{ID: id, Pair: pair.ID, User: holder}
	}

	balance, err := h.pools.BalanceOf(ctx, pair.ID, holder, meta.BlockNumber)
	if err != nil {
		return fmt.Errorf("balanceOf %s in %s: %w", holder, pair.ID, err)
	}
	pos.LiquidityTokenBalance = amount.ToDecimal(balance, LPDecimals)

	if err = h.repo.Save(ctx, pos); err != nil {
		return err
	}

	return h.snapshot(ctx, pos, pair, meta)
}

func (h *Handlers) snapshot(ctx context.Context, pos *domain.LiquidityPosition, pair *domain.Pair, meta domain.EventMeta) error {
	bundle, err := h.repo.Bundle(ctx)
	if err != nil {
		return err
	}
	token0, err := h.repo.Token(ctx, pair.Token0)
	if err != nil {
		return err
	}
	token1, err := h.repo.Token(ctx, pair.Token1)
	if err != nil {
		return err
	}

	snap := &domain.LiquidityPositionSnapshot{
		ID:                        domain.SnapshotID(pos.ID, meta.Timestamp),
		LiquidityPosition:         pos.ID,
		Timestamp:                 meta.Timestamp,
		Block:                     meta.BlockNumber,
		User:                      pos.User,
		Pair:                      pos.Pair,
		Reserve0:                  pair.Reserve0,
		Reserve1:                  pair.Reserve1,
		ReserveUSD:                pair.ReserveUSD,
		LiquidityTokenTotalSupply: pair.TotalSupply,
		LiquidityTokenBalance:     pos.LiquidityTokenBalance,
	}
	if token0.DerivedNative != nil {
		snap.Token0PriceUSD = amount.Ptr(token0.DerivedNative.Mul(bundle.NativePrice))
	}
	if token1.DerivedNative != nil {
		snap.Token1PriceUSD = amount.Ptr(token1.DerivedNative.Mul(bundle.NativePrice))
	}

	if err = h.repo.Save(ctx, snap); err != nil {
		return err
	}
	h.recorder.Record(ctx, snap)

	return nil
}
