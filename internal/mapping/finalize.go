package mapping

import (
	"context"
	"fmt"

	"ammindexer/internal/amount"
	"ammindexer/internal/domain"

	"github.com/shopspring/decimal"
)

// valueUSD prices both legs through their derived native price.
func valueUSD(a0 decimal.Decimal, t0 *domain.Token, a1 decimal.Decimal, t1 *domain.Token, nativePrice decimal.Decimal) decimal.Decimal {
	return amount.OrZero(t1.DerivedNative).Mul(a1).
		Add(amount.OrZero(t0.DerivedNative).Mul(a0)).
		Mul(nativePrice)
}

func (pc *pairContext) countTx() {
	pc.token0.TxCount++
	pc.token1.TxCount++
	pc.pair.TxCount++
	pc.factory.TxCount++
}

// Mint completes the transaction's pending mint.
func (h *Handlers) Mint(ctx context.Context, ev *domain.MintEvent) error {
	tx, err := h.repo.Transaction(ctx, ev.TxHash)
	if isNotFound(err) {
		return fmt.Errorf("%w: mint in unknown transaction %s", ErrOrderingViolation, ev.TxHash)
	}
	if err != nil {
		return err
	}

	lastID, ok := tx.Mints.Last()
	if !ok {
		return fmt.Errorf("%w: transaction %s has no mints", ErrOrderingViolation, tx.ID)
	}
	mint, err := h.repo.Mint(ctx, lastID)
	if err != nil {
		return err
	}
	if mint.Complete() {
		return fmt.Errorf("%w: mint %s already complete", ErrOrderingViolation, mint.ID)
	}

	pc, err := h.loadPairContext(ctx, domain.NormalizeAddress(ev.Address))
	if err != nil {
		return err
	}

	amount0 := amount.ToDecimal(ev.Amount0, pc.token0.Decimals)
	amount1 := amount.ToDecimal(ev.Amount1, pc.token1.Decimals)

	pc.countTx()
	if err = h.repo.SaveAll(ctx, pc.token0, pc.token1, pc.pair, pc.factory); err != nil {
		return err
	}

	sender := domain.NormalizeAddress(ev.Sender)
	logIndex := ev.LogIndex
	mint.Sender = &sender
	mint.Amount0 = amount.Ptr(amount0)
	mint.Amount1 = amount.Ptr(amount1)
	mint.LogIndex = &logIndex
	mint.AmountUSD = amount.Ptr(valueUSD(amount0, pc.token0, amount1, pc.token1, pc.bundle.NativePrice))

	if err = h.repo.Save(ctx, mint); err != nil {
		return err
	}
	h.recorder.Record(ctx, mint)

	return h.refreshPosition(ctx, pc.pair, mint.To, ev.EventMeta)
}

// Burn completes the transaction's last burn. The burn's sender, when known,
// is the holder whose position shrank.
func (h *Handlers) Burn(ctx context.Context, ev *domain.BurnEvent) error {
	tx, err := h.repo.Transaction(ctx, ev.TxHash)
	if isNotFound(err) {
		return fmt.Errorf("%w: burn in unknown transaction %s", ErrOrderingViolation, ev.TxHash)
	}
	if err != nil {
		return err
	}

	lastID, ok := tx.Burns.Last()
	if !ok {
		return fmt.Errorf("%w: transaction %s has no burns", ErrOrderingViolation, tx.ID)
	}
	burn, err := h.repo.Burn(ctx, lastID)
	if err != nil {
		return err
	}
	if burn.LogIndex != nil {
		return fmt.Errorf("%w: burn %s already complete", ErrOrderingViolation, burn.ID)
	}

	pc, err := h.loadPairContext(ctx, domain.NormalizeAddress(ev.Address))
	if err != nil {
		return err
	}

	amount0 := amount.ToDecimal(ev.Amount0, pc.token0.Decimals)
	amount1 := amount.ToDecimal(ev.Amount1, pc.token1.Decimals)

	pc.countTx()
	if err = h.repo.SaveAll(ctx, pc.token0, pc.token1, pc.pair, pc.factory); err != nil {
		return err
	}

	logIndex := ev.LogIndex
	burn.Amount0 = amount.Ptr(amount0)
	burn.Amount1 = amount.Ptr(amount1)
	burn.LogIndex = &logIndex
	burn.AmountUSD = amount.Ptr(valueUSD(amount0, pc.token0, amount1, pc.token1, pc.bundle.NativePrice))
	if burn.To == nil {
		to := domain.NormalizeAddress(ev.To)
		burn.To = &to
	}

	if err = h.repo.Save(ctx, burn); err != nil {
		return err
	}
	h.recorder.Record(ctx, burn)

	if burn.Sender == nil {
		return nil
	}
	return h.refreshPosition(ctx, pc.pair, *burn.Sender, ev.EventMeta)
}

// Swap records a swap and adds its volume. Global totals only take tracked volume.
func (h *Handlers) Swap(ctx context.Context, ev *domain.SwapEvent) error {
	pc, err := h.loadPairContext(ctx, domain.NormalizeAddress(ev.Address))
	if err != nil {
		return err
	}
	pair, token0, token1, factory, bundle := pc.pair, pc.token0, pc.token1, pc.factory, pc.bundle

	amount0In := amount.ToDecimal(ev.Amount0In, token0.Decimals)
	amount1In := amount.ToDecimal(ev.Amount1In, token1.Decimals)
	amount0Out := amount.ToDecimal(ev.Amount0Out, token0.Decimals)
	amount1Out := amount.ToDecimal(ev.Amount1Out, token1.Decimals)

	amount0Total := amount0In.Add(amount0Out)
	amount1Total := amount1In.Add(amount1Out)

	derivedNative := amount.Div(
		amount.OrZero(token1.DerivedNative).Mul(amount1Total).Add(amount.OrZero(token0.DerivedNative).Mul(amount0Total)),
		amount.Two,
	)
	derivedUSD := derivedNative.Mul(bundle.NativePrice)

	trackedUSD := h.oracle.TrackedVolumeUSD(amount0Total, token0, amount1Total, token1, pair, bundle.NativePrice)
	trackedNative := amount.Div(trackedUSD, bundle.NativePrice)

	token0.TradeVolume = token0.TradeVolume.Add(amount0Total)
	token0.TradeVolumeUSD = token0.TradeVolumeUSD.Add(trackedUSD)
	token0.UntrackedVolumeUSD = token0.UntrackedVolumeUSD.Add(derivedUSD)

	token1.TradeVolume = token1.TradeVolume.Add(amount1Total)
	token1.TradeVolumeUSD = token1.TradeVolumeUSD.Add(trackedUSD)
	token1.UntrackedVolumeUSD = token1.UntrackedVolumeUSD.Add(derivedUSD)

	pair.VolumeUSD = pair.VolumeUSD.Add(trackedUSD)
	pair.VolumeToken0 = pair.VolumeToken0.Add(amount0Total)
	pair.VolumeToken1 = pair.VolumeToken1.Add(amount1Total)
	pair.UntrackedVolumeUSD = pair.UntrackedVolumeUSD.Add(derivedUSD)

	factory.TotalVolumeUSD = factory.TotalVolumeUSD.Add(trackedUSD)
	factory.TotalVolumeNative = factory.TotalVolumeNative.Add(trackedNative)
	factory.UntrackedVolumeUSD = factory.UntrackedVolumeUSD.Add(derivedUSD)

	pc.countTx()
	if err = h.repo.SaveAll(ctx, pair, token0, token1, factory); err != nil {
		return err
	}

	tx, err := h.loadOrCreateTransaction(ctx, ev.EventMeta)
	if err != nil {
		return err
	}

	swap := &domain.Swap{
		ID:          domain.RecordID(tx.ID, tx.Swaps.Len()),
		Transaction: tx.ID,
		Timestamp:   tx.Timestamp,
		Pair:        pair.ID,
		Sender:      domain.NormalizeAddress(ev.Sender),
		From:        domain.NormalizeAddress(ev.TxFrom),
		Amount0In:   amount0In,
		Amount1In:   amount1In,
		Amount0Out:  amount0Out,
		Amount1Out:  amount1Out,
		To:          domain.NormalizeAddress(ev.To),
		LogIndex:    ev.LogIndex,
		AmountUSD:   trackedUSD,
	}
	if trackedUSD.IsZero() {
		swap.AmountUSD = derivedUSD
	}
	tx.Swaps.Append(swap.ID)

	if err = h.repo.SaveAll(ctx, swap, tx); err != nil {
		return err
	}
	h.recorder.Record(ctx, swap)

	return nil
}
