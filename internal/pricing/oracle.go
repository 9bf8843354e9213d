// Package pricing derives USD and native-asset prices from pair reserves.
package pricing

import (
	"context"
	"errors"

	"ammindexer/internal/amount"
	"ammindexer/internal/domain"
	"ammindexer/internal/repo"
	"ammindexer/internal/stores"

	"github.com/shopspring/decimal"
	"gitlab.com/nevasik7/alerting/logger"
)

// FactoryAccessor looks up pool addresses; a missing pool is the zero address.
type FactoryAccessor interface {
	GetPair(ctx context.Context, tokenA, tokenB string, stable bool) (string, error)
}

type Oracle struct {
	log     logger.Logger
	repo    *repo.Repository
	factory FactoryAccessor
	params  Params

	whitelist map[string]struct{}
	untracked map[string]struct{}
}

func NewOracle(log logger.Logger, r *repo.Repository, factory FactoryAccessor, params Params) *Oracle {
	params.normalize()

	o := &Oracle{
		log:       log,
		repo:      r,
		factory:   factory,
		params:    params,
		whitelist: make(map[string]struct{}, len(params.Whitelist)),
		untracked: make(map[string]struct{}, len(params.UntrackedPairs)),
	}
	for _, a := range params.Whitelist {
		o.whitelist[a] = struct{}{}
	}
	for _, a := range params.UntrackedPairs {
		o.untracked[a] = struct{}{}
	}
	return o
}

func (o *Oracle) NativeToken() string { return o.params.NativeToken }

func (o *Oracle) Whitelisted(token string) bool {
	_, ok := o.whitelist[token]
	return ok
}

type anchorQuote struct {
	price         decimal.Decimal
	nativeReserve decimal.Decimal
}

// ReferencePriceUSD is the native asset price: a native-reserve weighted average
// over the anchor pairs that exist, the spot price when only one does, zero when none.
func (o *Oracle) ReferencePriceUSD(ctx context.Context) (decimal.Decimal, error) {
	quotes := make([]anchorQuote, 0, len(o.params.Anchors))
	for _, a := range o.params.Anchors {
		p, err := o.repo.Pair(ctx, a.Pair)
		if errors.Is(err, stores.ErrNotFound) {
			continue
		}
		if err != nil {
			return decimal.Zero, err
		}

		if a.StableIsToken0 {
			quotes = append(quotes, anchorQuote{price: p.Token0Price, nativeReserve: p.Reserve1})
		} else {
			quotes = append(quotes, anchorQuote{price: p.Token1Price, nativeReserve: p.Reserve0})
		}
	}

	switch len(quotes) {
	case 0:
		return decimal.Zero, nil
	case 1:
		return quotes[0].price, nil
	}

	total := decimal.Zero
	for _, q := range quotes {
		total = total.Add(q.nativeReserve)
	}

	price := decimal.Zero
	for _, q := range quotes {
		price = price.Add(q.price.Mul(amount.Div(q.nativeReserve, total)))
	}
	return price, nil
}

// FindReferencePricePerToken returns the token price in the native asset via the first
// whitelist pair holding more than MinLiquidityNative. A pair the factory knows but the
// store does not prices the token at zero.
func (o *Oracle) FindReferencePricePerToken(ctx context.Context, token *domain.Token) (decimal.Decimal, error) {
	if token.ID == o.params.NativeToken {
		return amount.One, nil
	}

	for _, wl := range o.params.Whitelist {
		pairAddr, err := o.factory.GetPair(ctx, token.ID, wl, o.params.StableLookup)
		if err != nil {
			o.log.Warnf("getPair(%s, %s) failed: %v", token.ID, wl, err)
			continue
		}
		if pairAddr == "" || pairAddr == domain.AddressZero {
			continue
		}

		pair, err := o.repo.Pair(ctx, pairAddr)
		if errors.Is(err, stores.ErrNotFound) {
			return decimal.Zero, nil
		}
		if err != nil {
			return decimal.Zero, err
		}

		if !pair.ReserveNative.GreaterThan(o.params.MinLiquidityNative) {
			continue
		}

		switch token.ID {
		case pair.Token0:
			other, err := o.repo.Token(ctx, pair.Token1)
			if errors.Is(err, stores.ErrNotFound) {
				return decimal.Zero, nil
			}
			if err != nil {
				return decimal.Zero, err
			}
			return pair.Token1Price.Mul(amount.OrZero(other.DerivedNative)), nil
		case pair.Token1:
			other, err := o.repo.Token(ctx, pair.Token0)
			if errors.Is(err, stores.ErrNotFound) {
				return decimal.Zero, nil
			}
			if err != nil {
				return decimal.Zero, err
			}
			return pair.Token0Price.Mul(amount.OrZero(other.DerivedNative)), nil
		}
	}

	return decimal.Zero, nil
}
