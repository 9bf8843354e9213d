package mapping

import (
	"context"
	"errors"
	"fmt"

	"ammindexer/internal/domain"
	"ammindexer/internal/stores"
)

func isNotFound(err error) bool {
	return errors.Is(err, stores.ErrNotFound)
}

// loadOrCreateSingletons returns the factory aggregate and price bundle,
// creating and saving both on first use.
func (h *Handlers) loadOrCreateSingletons(ctx context.Context) (*domain.Factory, error) {
	factory, err := h.repo.Factory(ctx, h.factoryID)
	if err == nil {
		return factory, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	factory = &domain.Factory{ID: h.factoryID}
	bundle := &domain.Bundle{ID: domain.BundleID}
	if err = h.repo.SaveAll(ctx, bundle, factory); err != nil {
		return nil, err
	}

	h.log.Infof("Created factory aggregate and price bundle, factory=%s", h.factoryID)
	return factory, nil
}

// PairCreated registers a new pool. The pair counter only moves once both
// tokens resolved, so an abort leaves no trace beyond the singletons.
func (h *Handlers) PairCreated(ctx context.Context, ev *domain.PairCreatedEvent) error {
	pairID := domain.NormalizeAddress(ev.Pair)

	if _, err := h.repo.Pair(ctx, pairID); err == nil {
		return fmt.Errorf("%w: pair %s already exists", ErrIgnored, pairID)
	} else if !isNotFound(err) {
		return err
	}

	factory, err := h.loadOrCreateSingletons(ctx)
	if err != nil {
		return err
	}

	token0, _, err := h.tokens.GetOrCreate(ctx, ev.Token0)
	if err != nil {
		return fmt.Errorf("resolve token0 of pair %s: %w", pairID, err)
	}
	token1, _, err := h.tokens.GetOrCreate(ctx, ev.Token1)
	if err != nil {
		return fmt.Errorf("resolve token1 of pair %s: %w", pairID, err)
	}

	if err = h.sources.Register(ctx, pairID); err != nil {
		return fmt.Errorf("register source %s: %w", pairID, err)
	}

	factory.PairCount++

	pair := &domain.Pair{
		ID:                   pairID,
		Token0:               token0.ID,
		Token1:               token1.ID,
		Stable:               ev.Stable,
		CreatedAtTimestamp:   ev.Timestamp,
		CreatedAtBlockNumber: ev.BlockNumber,
	}

	return h.repo.SaveAll(ctx, token0, token1, pair, factory)
}
