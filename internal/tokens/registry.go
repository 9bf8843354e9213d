// Package tokens creates Token records on first sighting.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"ammindexer/internal/amount"
	"ammindexer/internal/domain"
	"ammindexer/internal/repo"
	"ammindexer/internal/stores"

	"github.com/shopspring/decimal"
)

var ErrMetadataUnavailable = errors.New("token decimals unavailable")

type Registry struct {
	repo      *repo.Repository
	resolvers []Resolver
}

// NewRegistry consults resolvers in the given order for every field.
func NewRegistry(r *repo.Repository, resolvers ...Resolver) *Registry {
	return &Registry{repo: r, resolvers: resolvers}
}

// GetOrCreate returns the stored token or a new unsaved one. created reports which.
func (r *Registry) GetOrCreate(ctx context.Context, addr string) (tok *domain.Token, created bool, err error) {
	id := strings.ToLower(addr)

	tok, err = r.repo.Token(ctx, id)
	if err == nil {
		return tok, false, nil
	}
	if !errors.Is(err, stores.ErrNotFound) {
		return nil, false, err
	}

	decimals, ok := r.decimals(ctx, id)
	if !ok {
		return nil, false, fmt.Errorf("%w: token=%s", ErrMetadataUnavailable, id)
	}

	supply := r.totalSupply(ctx, id)

	return &domain.Token{
		ID:                 id,
		Symbol:             r.symbol(ctx, id),
		Name:               r.name(ctx, id),
		Decimals:           decimals,
		TotalSupply:        decimal.NewFromBigInt(supply, 0),
		TradeVolume:        decimal.Zero,
		TradeVolumeUSD:     decimal.Zero,
		UntrackedVolumeUSD: decimal.Zero,
		TotalLiquidity:     decimal.Zero,
		DerivedNative:      amount.Ptr(decimal.Zero),
	}, true, nil
}

func (r *Registry) symbol(ctx context.Context, addr string) string {
	for _, res := range r.resolvers {
		if v, ok := res.Symbol(ctx, addr); ok {
			return v
		}
	}
	return UnknownValue
}

func (r *Registry) name(ctx context.Context, addr string) string {
	for _, res := range r.resolvers {
		if v, ok := res.Name(ctx, addr); ok {
			return v
		}
	}
	return UnknownValue
}

func (r *Registry) decimals(ctx context.Context, addr string) (int32, bool) {
	for _, res := range r.resolvers {
		if v, ok := res.Decimals(ctx, addr); ok {
			return v, true
		}
	}
	return 0, false
}

func (r *Registry) totalSupply(ctx context.Context, addr string) *big.Int {
	for _, res := range r.resolvers {
		if v, ok := res.TotalSupply(ctx, addr); ok && v != nil {
			return v
		}
	}
	return new(big.Int)
}
