// Package mapping applies decoded pool and factory events to the aggregate model.
package mapping

import (
	"context"
	"fmt"
	"math/big"

	"ammindexer/internal/domain"
	"ammindexer/internal/pricing"
	"ammindexer/internal/repo"
	"ammindexer/internal/tokens"

	"gitlab.com/nevasik7/alerting/logger"
)

// LPDecimals is the precision of every pool liquidity token.
const LPDecimals int32 = 18

// PoolAccessor reads LP balances from a pool contract as of a block.
type PoolAccessor interface {
	BalanceOf(ctx context.Context, pool, holder string, block uint64) (*big.Int, error)
}

// SourceRegistrar starts routing a new pool's events to the handlers.
type SourceRegistrar interface {
	Register(ctx context.Context, address string) error
}

// Recorder receives finalized mints, burns, swaps and position snapshots.
type Recorder interface {
	Record(ctx context.Context, e domain.Entity)
}

type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, domain.Entity) {}

type Deps struct {
	Log            logger.Logger
	Repo           *repo.Repository
	Tokens         *tokens.Registry
	Oracle         *pricing.Oracle
	Pools          PoolAccessor
	Sources        SourceRegistrar
	Recorder       Recorder
	FactoryAddress string
}

// Handlers runs one event at a time; callers must not invoke it concurrently.
type Handlers struct {
	log       logger.Logger
	repo      *repo.Repository
	tokens    *tokens.Registry
	oracle    *pricing.Oracle
	pools     PoolAccessor
	sources   SourceRegistrar
	recorder  Recorder
	factoryID string
}

func New(d Deps) *Handlers {
	rec := d.Recorder
	if rec == nil {
		rec = NoopRecorder{}
	}

	return &Handlers{
		log:       d.Log,
		repo:      d.Repo,
		tokens:    d.Tokens,
		oracle:    d.Oracle,
		pools:     d.Pools,
		sources:   d.Sources,
		recorder:  rec,
		factoryID: domain.NormalizeAddress(d.FactoryAddress),
	}
}

// Handle dispatches ev to its handler. A non-nil error means the handler stopped
// early; see Classify.
func (h *Handlers) Handle(ctx context.Context, ev domain.Event) error {
	switch e := ev.(type) {
	case *domain.PairCreatedEvent:
		return h.PairCreated(ctx, e)
	case *domain.TransferEvent:
		return h.Transfer(ctx, e)
	case *domain.SyncEvent:
		return h.Sync(ctx, e)
	case *domain.MintEvent:
		return h.Mint(ctx, e)
	case *domain.BurnEvent:
		return h.Burn(ctx, e)
	case *domain.SwapEvent:
		return h.Swap(ctx, e)
	default:
		return fmt.Errorf("%w: unsupported event %s", ErrIgnored, ev.Name())
	}
}

// pairContext is the state most pool handlers load before touching anything.
type pairContext struct {
	pair    *domain.Pair
	token0  *domain.Token
	token1  *domain.Token
	factory *domain.Factory
	bundle  *domain.Bundle
}

func (h *Handlers) loadPairContext(ctx context.Context, pairID string) (*pairContext, error) {
	var (
		pc  pairContext
		err error
	)

	if pc.pair, err = h.repo.Pair(ctx, pairID); err != nil {
		return nil, err
	}
	if pc.token0, err = h.repo.Token(ctx, pc.pair.Token0); err != nil {
		return nil, err
	}
	if pc.token1, err = h.repo.Token(ctx, pc.pair.Token1); err != nil {
		return nil, err
	}
	if pc.factory, err = h.repo.Factory(ctx, h.factoryID); err != nil {
		return nil, err
	}
	if pc.bundle, err = h.repo.Bundle(ctx); err != nil {
		return nil, err
	}

	return &pc, nil
}

func (h *Handlers) loadOrCreateTransaction(ctx context.Context, meta domain.EventMeta) (*domain.Transaction, error) {
	tx, err := h.repo.Transaction(ctx, meta.TxHash)
	if err == nil {
		return tx, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	return &domain.Transaction{
		ID:          meta.TxHash,
		BlockNumber: meta.BlockNumber,
		Timestamp:   meta.Timestamp,
	}, nil
}
