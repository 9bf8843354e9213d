package pricing

import (
	"fmt"

	"ammindexer/internal/amount"
	"ammindexer/internal/config"
	"ammindexer/internal/domain"

	"github.com/shopspring/decimal"
)

// Anchor is a stable/native pair used to price the native asset in USD.
type Anchor struct {
	Pair           string
	StableIsToken0 bool
}

type Params struct {
	NativeToken           string
	Anchors               []Anchor
	Whitelist             []string // priority order for FindReferencePricePerToken
	UntrackedPairs        []string
	MinLiquidityNative    decimal.Decimal
	MinUSDNewPairs        decimal.Decimal
	MinLiquidityProviders uint64
	StableLookup          bool
}

const defaultNativeToken = "0x21be370d5312f44cb42ce377bc9b8a0cef1a4c83" // WFTM

var defaultWhitelist = []string{
	defaultNativeToken,                           // WFTM
	"0x8d11ec38a3eb5e956b052f67da8bdc9bef8abf3e", // DAI
	"0x04068da6c83afcfa0e13ba15a6696662335d5b75", // USDC
	"0x9879abdea01a879644185341f7af7d8343556b7a", // TUSD
	"0xe1146b9ac456fcbb60644c36fd3f868a9072fc6e", // fBTC
	"0x658b0c7613e890ee50b8c4bc6a3f41ef411208ad", // fETH
	"0x321162cd933e2be498cd2267a90534a804051b11", // BTC
	"0xb3654dc3d10ea7645f8319668e8f54d2574fbdc8", // LINK
	"0x69c744d3444202d35a2783929a0f930f2fbb05ad", // SFTM
	"0x82f0b8b456c1a451378467398982d4834b6829c1", // MIM
	"0xdc301622e621166bd8e82f2ca0a26c13ad0be355", // FRAX
	"0x6a07a792ab2965c72a5b8088d3a069a7ac3a993b", // AAVE
	"0x1e4f97b9f9f913c46f1632781732927b9019c68b", // CRV
	"0x56ee926bd8c72b2d5fa1af4d9e4cbb515a1e3adc", // SYX
	"0x29b0da86e484e1c0029b56e817912d778ac0ec69", // YFI
	"0xae75a438b2e0cb8bb01ec1e1e376de11d44477cc", // SUSHI
	"0x7d016eec9c25232b01f23ef992d98ca97fc2af5a", // FXS
	"0x468003b688943977e6130f4f68f23aad939a1040", // SPELL
	"0x2a5062d22adcfaafbd5c541d4da82e4b450d4212", // K3PR
	"0x841fad6eae12c286d1fd18d1d525dffa75c7effe", // BOO
}

// DefaultParams prices against the Fantom deployment.
func DefaultParams() Params {
	return Params{
		NativeToken: defaultNativeToken,
		Anchors: []Anchor{
			{Pair: "0x2b4c76d0dc16be1c31d4c1dc53bf9b45987fc75c", StableIsToken0: true},  // USDC/WFTM
			{Pair: "0x5965e53aa80a0bcf1cd6dbdd72e6a9b2aa047410", StableIsToken0: false}, // WFTM/USDT
		},
		Whitelist:             append([]string(nil), defaultWhitelist...),
		MinLiquidityNative:    decimal.NewFromInt(2),
		MinUSDNewPairs:        decimal.NewFromInt(400000),
		MinLiquidityProviders: 5,
		StableLookup:          true,
	}
}

// ParamsFromConfig overlays non-empty config values on DefaultParams.
func ParamsFromConfig(cfg *config.PricingConfig) (Params, error) {
	p := DefaultParams()
	if cfg == nil {
		return p, nil
	}

	if cfg.NativeToken != "" {
		p.NativeToken = cfg.NativeToken
	}
	if len(cfg.Anchors) > 0 {
		p.Anchors = p.Anchors[:0]
		for _, a := range cfg.Anchors {
			p.Anchors = append(p.Anchors, Anchor{Pair: a.Pair, StableIsToken0: a.StableIsToken0})
		}
	}
	if len(cfg.Whitelist) > 0 {
		p.Whitelist = append([]string(nil), cfg.Whitelist...)
	}
	if len(cfg.UntrackedPairs) > 0 {
		p.UntrackedPairs = append([]string(nil), cfg.UntrackedPairs...)
	}
	if cfg.MinLiquidityProviders > 0 {
		p.MinLiquidityProviders = cfg.MinLiquidityProviders
	}
	if cfg.StableLookup != nil {
		p.StableLookup = *cfg.StableLookup
	}

	var err error
	if p.MinLiquidityNative, err = amount.Parse(cfg.MinLiquidityNative, p.MinLiquidityNative); err != nil {
		return p, fmt.Errorf("invalid min_liquidity_native: %w", err)
	}
	if p.MinUSDNewPairs, err = amount.Parse(cfg.MinUSDNewPairs, p.MinUSDNewPairs); err != nil {
		return p, fmt.Errorf("invalid min_usd_new_pairs: %w", err)
	}

	return p, nil
}

func (p *Params) normalize() {
	p.NativeToken = domain.NormalizeAddress(p.NativeToken)
	for i := range p.Anchors {
		p.Anchors[i].Pair = domain.NormalizeAddress(p.Anchors[i].Pair)
	}
	for i := range p.Whitelist {
		p.Whitelist[i] = domain.NormalizeAddress(p.Whitelist[i])
	}
	for i := range p.UntrackedPairs {
		p.UntrackedPairs[i] = domain.NormalizeAddress(p.UntrackedPairs[i])
	}
}
