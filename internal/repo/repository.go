// Package repo is the keyed entity store: load(kind, id), save(entity), remove(kind, id).
package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"ammindexer/internal/domain"
	"ammindexer/internal/stores"
)

type Repository struct {
	kv stores.KV
}

func New(kv stores.KV) *Repository {
	return &Repository{kv: kv}
}

func key(kind domain.Kind, id string) string {
	return string(kind) + ":" + id
}

// Save upserts e.
func (r *Repository) Save(ctx context.Context, e domain.Entity) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", e.Kind(), e.Key(), err)
	}
	if err = r.kv.Put(ctx, key(e.Kind(), e.Key()), b); err != nil {
		return fmt.Errorf("save %s %s: %w", e.Kind(), e.Key(), err)
	}
	return nil
}

// SaveAll saves in order and stops on the first failure.
func (r *Repository) SaveAll(ctx context.Context, es ...domain.Entity) error {
	for _, e := range es {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, kind domain.Kind, id string) error {
	if err := r.kv.Delete(ctx, key(kind, id)); err != nil {
		return fmt.Errorf("remove %s %s: %w", kind, id, err)
	}
	return nil
}

func (r *Repository) Health(ctx context.Context) error {
	return r.kv.Health(ctx)
}

// load decodes the record into a fresh T; absence surfaces as stores.ErrNotFound.
func load[T any](ctx context.Context, r *Repository, kind domain.Kind, id string) (*T, error) {
	b, err := r.kv.Get(ctx, key(kind, id))
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", kind, id, err)
	}

	out := new(T)
	if err = json.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", kind, id, err)
	}
	return out, nil
}

func (r *Repository) Factory(ctx context.Context, id string) (*domain.Factory, error) {
	return load[domain.Factory](ctx, r, domain.KindFactory, id)
}

func (r *Repository) Bundle(ctx context.Context) (*domain.Bundle, error) {
	return load[domain.Bundle](ctx, r, domain.KindBundle, domain.BundleID)
}

func (r *Repository) Token(ctx context.Context, id string) (*domain.Token, error) {
	return load[domain.Token](ctx, r, domain.KindToken, id)
}

func (r *Repository) Pair(ctx context.Context, id string) (*domain.Pair, error) {
	return load[domain.Pair](ctx, r, domain.KindPair, id)
}

func (r *Repository) User(ctx context.Context, id string) (*domain.User, error) {
	return load[domain.User](ctx, r, domain.KindUser, id)
}

func (r *Repository) Transaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return load[domain.Transaction](ctx, r, domain.KindTransaction, id)
}

func (r *Repository) Mint(ctx context.Context, id string) (*domain.Mint, error) {
	return load[domain.Mint](ctx, r, domain.KindMint, id)
}

func (r *Repository) Burn(ctx context.Context, id string) (*domain.Burn, error) {
	return load[domain.Burn](ctx, r, domain.KindBurn, id)
}

func (r *Repository) Swap(ctx context.Context, id string) (*domain.Swap, error) {
	return load[domain.Swap](ctx, r, domain.KindSwap, id)
}

func (r *Repository) LiquidityPosition(ctx context.Context, id string) (*domain.LiquidityPosition, error) {
	return load[domain.LiquidityPosition](ctx, r, domain.KindLiquidityPosition, id)
}

func (r *Repository) Snapshot(ctx context.Context, id string) (*domain.LiquidityPositionSnapshot, error) {
	return load[domain.LiquidityPositionSnapshot](ctx, r, domain.KindPositionSnapshot, id)
}
