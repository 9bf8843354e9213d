package tokens

import (
	"context"
	"math/big"
	"strings"

	"ammindexer/internal/config"
	"ammindexer/internal/domain"

	"gitlab.com/nevasik7/alerting/logger"
)

// UnknownValue is stored when symbol or name cannot be read.
const UnknownValue = "unknown"

// Resolver answers one metadata field at a time; ok=false defers to the next resolver.
type Resolver interface {
	Symbol(ctx context.Context, addr string) (string, bool)
	Name(ctx context.Context, addr string) (string, bool)
	Decimals(ctx context.Context, addr string) (int32, bool)
	TotalSupply(ctx context.Context, addr string) (*big.Int, bool)
}

// MetadataAccessor reads ERC-20 metadata from the token contract.
type MetadataAccessor interface {
	Symbol(ctx context.Context, addr string) (string, error)
	Name(ctx context.Context, addr string) (string, error)
	Decimals(ctx context.Context, addr string) (int32, error)
	TotalSupply(ctx context.Context, addr string) (*big.Int, error)
}

// StaticDefinition overrides metadata for tokens with non-standard interfaces.
type StaticDefinition struct {
	Address  string
	Symbol   string
	Name     string
	Decimals int32
}

// DefaultStaticDefinitions is the built-in override table.
func DefaultStaticDefinitions() []StaticDefinition {
	return []StaticDefinition{
		{
			Address:  "0x21be370d5312f44cb42ce377bc9b8a0cef1a4c83",
			Symbol:   "wFTM",
			Name:     "wFTM",
			Decimals: 18,
		},
	}
}

// StaticDefinitionsFromConfig merges configured overrides over the defaults.
func StaticDefinitionsFromConfig(cfg *config.TokensConfig) []StaticDefinition {
	defs := DefaultStaticDefinitions()
	if cfg == nil {
		return defs
	}
	for _, s := range cfg.Static {
		defs = append(defs, StaticDefinition{
			Address:  s.Address,
			Symbol:   s.Symbol,
			Name:     s.Name,
			Decimals: s.Decimals,
		})
	}
	return defs
}

type StaticResolver struct {
	defs map[string]StaticDefinition
}

// later definitions win
func NewStaticResolver(defs []StaticDefinition) *StaticResolver {
	m := make(map[string]StaticDefinition, len(defs))
	for _, d := range defs {
		m[domain.NormalizeAddress(d.Address)] = d
	}
	return &StaticResolver{defs: m}
}

func (s *StaticResolver) lookup(addr string) (StaticDefinition, bool) {
	d, ok := s.defs[strings.ToLower(addr)]
	return d, ok
}

func (s *StaticResolver) Symbol(_ context.Context, addr string) (string, bool) {
	d, ok := s.lookup(addr)
	return d.Symbol, ok
}

func (s *StaticResolver) Name(_ context.Context, addr string) (string, bool) {
	d, ok := s.lookup(addr)
	return d.Name, ok
}

func (s *StaticResolver) Decimals(_ context.Context, addr string) (int32, bool) {
	d, ok := s.lookup(addr)
	return d.Decimals, ok
}

func (s *StaticResolver) TotalSupply(context.Context, string) (*big.Int, bool) {
	return nil, false
}

// AccessorResolver turns accessor failures into deferrals.
type AccessorResolver struct {
	log logger.Logger
	acc MetadataAccessor
}

func NewAccessorResolver(log logger.Logger, acc MetadataAccessor) *AccessorResolver {
	return &AccessorResolver{log: log, acc: acc}
}

func (a *AccessorResolver) Symbol(ctx context.Context, addr string) (string, bool) {
	v, err := a.acc.Symbol(ctx, addr)
	if err != nil {
		a.log.Debugf("symbol() failed for token=%s: %v", addr, err)
		return "", false
	}
	return v, true
}

func (a *AccessorResolver) Name(ctx context.Context, addr string) (string, bool) {
	v, err := a.acc.Name(ctx, addr)
	if err != nil {
		a.log.Debugf("name() failed for token=%s: %v", addr, err)
		return "", false
	}
	return v, true
}

func (a *AccessorResolver) Decimals(ctx context.Context, addr string) (int32, bool) {
	v, err := a.acc.Decimals(ctx, addr)
	if err != nil {
		a.log.Warnf("decimals() failed for token=%s: %v", addr, err)
		return 0, false
	}
	return v, true
}

func (a *AccessorResolver) TotalSupply(ctx context.Context, addr string) (*big.Int, bool) {
	v, err := a.acc.TotalSupply(ctx, addr)
	if err != nil {
		a.log.Debugf("totalSupply() failed for token=%s: %v", addr, err)
		return nil, false
	}
	return v, true
}

// FallbackResolver supplies sentinels. It never answers decimals.
type FallbackResolver struct{}

func (FallbackResolver) Symbol(context.Context, string) (string, bool) { return UnknownValue, true }
func (FallbackResolver) Name(context.Context, string) (string, bool)   { return UnknownValue, true }
func (FallbackResolver) Decimals(context.Context, string) (int32, bool) {
	return 0, false
}
func (FallbackResolver) TotalSupply(context.Context, string) (*big.Int, bool) {
	return new(big.Int), true
}
