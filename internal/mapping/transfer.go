package mapping

import (
	"context"
	"fmt"
	"math/big"

	"ammindexer/internal/amount"
	"ammindexer/internal/domain"

	"github.com/shopspring/decimal"
)

// lockedLiquidity is the minimum liquidity a pool burns on its first mint.
var lockedLiquidity = big.NewInt(1000)

// Transfer turns LP token movements into pending mints and burns, then
// refreshes the positions of the holders involved.
func (h *Handlers) Transfer(ctx context.Context, ev *domain.TransferEvent) error {
	pairID := domain.NormalizeAddress(ev.Address)
	from := domain.NormalizeAddress(ev.From)
	to := domain.NormalizeAddress(ev.To)

	pair, err := h.repo.Pair(ctx, pairID)
	if err != nil {
		return err
	}

	if isLockTransfer(ev.Value, from, to, pair) {
		return fmt.Errorf("%w: minimum liquidity lock in pair %s", ErrIgnored, pairID)
	}

	if err = h.ensureUsers(ctx, from, to); err != nil {
		return err
	}

	value := amount.ToDecimal(ev.Value, LPDecimals)

	tx, err := h.loadOrCreateTransaction(ctx, ev.EventMeta)
	if err != nil {
		return err
	}

	if from == domain.AddressZero {
		if err = h.mintLeg(ctx, tx, pair, to, value); err != nil {
			return err
		}
	}

	if to == pair.ID {
		if err = h.directSendLeg(ctx, tx, pair, from, to, value); err != nil {
			return err
		}
	}

	if to == domain.AddressZero && from == pair.ID {
		if err = h.burnLeg(ctx, tx, pair, value); err != nil {
			return err
		}
	}

	for _, holder := range []string{from, to} {
		if holder == domain.AddressZero || holder == pair.ID {
			continue
		}
		if err = h.refreshPosition(ctx, pair, holder, ev.EventMeta); err != nil {
			return err
		}
	}

	return nil
}

// isLockTransfer reports the 1000-unit minimum liquidity movement, either burnt
// to the zero address or minted while the pool still has no supply.
func isLockTransfer(value *big.Int, from, to string, pair *domain.Pair) bool {
	if value == nil || value.Cmp(lockedLiquidity) != 0 {
		return false
	}
	if to == domain.AddressZero {
		return true
	}
	return from == domain.AddressZero && pair.TotalSupply.IsZero()
}

func (h *Handlers) ensureUsers(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		_, err := h.repo.User(ctx, id)
		if err == nil {
			continue
		}
		if !isNotFound(err) {
			return err
		}
		if err = h.repo.Save(ctx, &domain.User{ID: id}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) mintLeg(ctx context.Context, tx *domain.Transaction, pair *domain.Pair, to string, value decimal.Decimal) error {
	pair.TotalSupply = pair.TotalSupply.Add(value)
	if err := h.repo.Save(ctx, pair); err != nil {
		return err
	}

	// a pending mint keeps its slot until the Mint notification completes it
	if lastID, ok := tx.Mints.Last(); ok {
		last, err := h.repo.Mint(ctx, lastID)
		if err != nil {
			return err
		}
		if !last.Complete() {
			return nil
		}
	}

	mint := &domain.Mint{
		ID:          domain.RecordID(tx.ID, tx.Mints.Len()),
		Transaction: tx.ID,
		Timestamp:   tx.Timestamp,
		Pair:        pair.ID,
		To:          to,
		Liquidity:   value,
	}
	tx.Mints.Append(mint.ID)

	return h.repo.SaveAll(ctx, mint, tx)
}

// directSendLeg reserves a burn slot for LP tokens sent back to the pool ahead
// of the pool-to-zero transfer.
func (h *Handlers) directSendLeg(ctx context.Context, tx *domain.Transaction, pair *domain.Pair, from, to string, value decimal.Decimal) error {
	burn := &domain.Burn{
		ID:            domain.RecordID(tx.ID, tx.Burns.Len()),
		Transaction:   tx.ID,
		Timestamp:     tx.Timestamp,
		Pair:          pair.ID,
		Liquidity:     value,
		Sender:        &from,
		To:            &to,
		NeedsComplete: true,
	}
	tx.Burns.Append(burn.ID)

	return h.repo.SaveAll(ctx, burn, tx)
}

func (h *Handlers) burnLeg(ctx context.Context, tx *domain.Transaction, pair *domain.Pair, value decimal.Decimal) error {
	pair.TotalSupply = pair.TotalSupply.Sub(value)
	if err := h.repo.Save(ctx, pair); err != nil {
		return err
	}

	var burn *domain.Burn
	if lastID, ok := tx.Burns.Last(); ok {
		last, err := h.repo.Burn(ctx, lastID)
		if err != nil {
			return err
		}
		if last.NeedsComplete {
			burn = last
		}
	}

	reused := burn != nil
	if !reused {
		burn = &domain.Burn{
			ID:          domain.RecordID(tx.ID, tx.Burns.Len()),
			Transaction: tx.ID,
			Timestamp:   tx.Timestamp,
			Pair:        pair.ID,
			Liquidity:   value,
		}
	}

	// a still-pending mint in the same transaction is the protocol fee mint
	if lastID, ok := tx.Mints.Last(); ok {
		mint, err := h.repo.Mint(ctx, lastID)
		if err != nil {
			return err
		}
		if !mint.Complete() {
			feeTo := mint.To
			burn.FeeTo = &feeTo
			burn.FeeLiquidity = amount.Ptr(mint.Liquidity)

			if err = h.repo.Remove(ctx, domain.KindMint, mint.ID); err != nil {
				return err
			}
			tx.Mints.PopLast()
			if err = h.repo.Save(ctx, tx); err != nil {
				return err
			}
		}
	}

	burn.NeedsComplete = false
	if err := h.repo.Save(ctx, burn); err != nil {
		return err
	}

	if reused {
		tx.Burns.ReplaceLast(burn.ID)
	} else {
		tx.Burns.Append(burn.ID)
	}

	return h.repo.Save(ctx, tx)
}
