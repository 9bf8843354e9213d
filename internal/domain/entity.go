package domain

import (
	"github.com/shopspring/decimal"
)

// Kind names an entity keyspace in the store.
type Kind string

const (
	KindFactory           Kind = "factory"
	KindBundle            Kind = "bundle"
	KindToken             Kind = "token"
	KindPair              Kind = "pair"
	KindUser              Kind = "user"
	KindTransaction       Kind = "transaction"
	KindMint              Kind = "mint"
	KindBurn              Kind = "burn"
	KindSwap              Kind = "swap"
	KindLiquidityPosition Kind = "liquidity_position"
	KindPositionSnapshot  Kind = "liquidity_position_snapshot"
)

// BundleID is the key of the singleton price bundle.
const BundleID = "1"

// Entity is anything the store can persist.
type Entity interface {
	Kind() Kind
	Key() string
}

// Factory is the global aggregate, keyed by the factory address.
type Factory struct {
	ID                   string          `json:"id"`
	PairCount            uint64          `json:"pairCount"`
	TotalVolumeNative    decimal.Decimal `json:"totalVolumeNative"`
	TotalVolumeUSD       decimal.Decimal `json:"totalVolumeUSD"`
	UntrackedVolumeUSD   decimal.Decimal `json:"untrackedVolumeUSD"`
	TotalLiquidityNative decimal.Decimal `json:"totalLiquidityNative"`
	TotalLiquidityUSD    decimal.Decimal `json:"totalLiquidityUSD"`
	TxCount              uint64          `json:"txCount"`
}

func (f *Factory) Kind() Kind  { return KindFactory }
func (f *Factory) Key() string { return f.ID }

// Bundle holds the native asset price in USD.
type Bundle struct {
	ID          string          `json:"id"`
	NativePrice decimal.Decimal `json:"nativePrice"`
}

func (b *Bundle) Kind() Kind  { return KindBundle }
func (b *Bundle) Key() string { return b.ID }

type Token struct {
	ID                 string           `json:"id"`
	Symbol             string           `json:"symbol"`
	Name               string           `json:"name"`
	Decimals           int32            `json:"decimals"`
	TotalSupply        decimal.Decimal  `json:"totalSupply"`
	TradeVolume        decimal.Decimal  `json:"tradeVolume"`
	TradeVolumeUSD     decimal.Decimal  `json:"tradeVolumeUSD"`
	UntrackedVolumeUSD decimal.Decimal  `json:"untrackedVolumeUSD"`
	TxCount            uint64           `json:"txCount"`
	TotalLiquidity     decimal.Decimal  `json:"totalLiquidity"`
	DerivedNative      *decimal.Decimal `json:"derivedNative"`
}

func (t *Token) Kind() Kind  { return KindToken }
func (t *Token) Key() string { return t.ID }

type Pair struct {
	ID                     string          `json:"id"`
	Token0                 string          `json:"token0"`
	Token1                 string          `json:"token1"`
	Stable                 bool            `json:"stable"`
	Reserve0               decimal.Decimal `json:"reserve0"`
	Reserve1               decimal.Decimal `json:"reserve1"`
	TotalSupply            decimal.Decimal `json:"totalSupply"`
	ReserveNative          decimal.Decimal `json:"reserveNative"`
	ReserveUSD             decimal.Decimal `json:"reserveUSD"`
	TrackedReserveNative   decimal.Decimal `json:"trackedReserveNative"`
	Token0Price            decimal.Decimal `json:"token0Price"`
	Token1Price            decimal.Decimal `json:"token1Price"`
	VolumeToken0           decimal.Decimal `json:"volumeToken0"`
	VolumeToken1           decimal.Decimal `json:"volumeToken1"`
	VolumeUSD              decimal.Decimal `json:"volumeUSD"`
	UntrackedVolumeUSD     decimal.Decimal `json:"untrackedVolumeUSD"`
	TxCount                uint64          `json:"txCount"`
	LiquidityProviderCount uint64          `json:"liquidityProviderCount"`
	CreatedAtTimestamp     uint64          `json:"createdAtTimestamp"`
	CreatedAtBlockNumber   uint64          `json:"createdAtBlockNumber"`
}

func (p *Pair) Kind() Kind  { return KindPair }
func (p *Pair) Key() string { return p.ID }

type User struct {
	ID         string          `json:"id"`
	USDSwapped decimal.Decimal `json:"usdSwapped"`
}

func (u *User) Kind() Kind  { return KindUser }
func (u *User) Key() string { return u.ID }

// Transaction groups the records produced by one on-chain transaction.
type Transaction struct {
	ID          string    `json:"id"`
	BlockNumber uint64    `json:"blockNumber"`
	Timestamp   uint64    `json:"timestamp"`
	Mints       RecordLog `json:"mints"`
	Burns       RecordLog `json:"burns"`
	Swaps       RecordLog `json:"swaps"`
}

func (t *Transaction) Kind() Kind  { return KindTransaction }
func (t *Transaction) Key() string { return t.ID }

// Mint is pending until Sender is set.
type Mint struct {
	ID          string           `json:"id"`
	Transaction string           `json:"transaction"`
	Timestamp   uint64           `json:"timestamp"`
	Pair        string           `json:"pair"`
	To          string           `json:"to"`
	Liquidity   decimal.Decimal  `json:"liquidity"`
	Sender      *string          `json:"sender"`
	Amount0     *decimal.Decimal `json:"amount0"`
	Amount1     *decimal.Decimal `json:"amount1"`
	LogIndex    *uint64          `json:"logIndex"`
	AmountUSD   *decimal.Decimal `json:"amountUSD"`
}

func (m *Mint) Kind() Kind  { return KindMint }
func (m *Mint) Key() string { return m.ID }

func (m *Mint) Complete() bool { return m.Sender != nil }

type Burn struct {
	ID            string           `json:"id"`
	Transaction   string           `json:"transaction"`
	Timestamp     uint64           `json:"timestamp"`
	Pair          string           `json:"pair"`
	Liquidity     decimal.Decimal  `json:"liquidity"`
	Sender        *string          `json:"sender"`
	To            *string          `json:"to"`
	NeedsComplete bool             `json:"needsComplete"`
	FeeTo         *string          `json:"feeTo"`
	FeeLiquidity  *decimal.Decimal `json:"feeLiquidity"`
	Amount0       *decimal.Decimal `json:"amount0"`
	Amount1       *decimal.Decimal `json:"amount1"`
	LogIndex      *uint64          `json:"logIndex"`
	AmountUSD     *decimal.Decimal `json:"amountUSD"`
}

func (b *Burn) Kind() Kind  { return KindBurn }
func (b *Burn) Key() string { return b.ID }

type Swap struct {
	ID          string          `json:"id"`
	Transaction string          `json:"transaction"`
	Timestamp   uint64          `json:"timestamp"`
	Pair        string          `json:"pair"`
	Sender      string          `json:"sender"`
	From        string          `json:"from"`
	Amount0In   decimal.Decimal `json:"amount0In"`
	Amount1In   decimal.Decimal `json:"amount1In"`
	Amount0Out  decimal.Decimal `json:"amount0Out"`
	Amount1Out  decimal.Decimal `json:"amount1Out"`
	To          string          `json:"to"`
	LogIndex    uint64          `json:"logIndex"`
	AmountUSD   decimal.Decimal `json:"amountUSD"`
}

func (s *Swap) Kind() Kind  { return KindSwap }
func (s *Swap) Key() string { return s.ID }

type LiquidityPosition struct {
	ID                    string          `json:"id"`
	Pair                  string          `json:"pair"`
	User                  string          `json:"user"`
	LiquidityTokenBalance decimal.Decimal `json:"liquidityTokenBalance"`
}

func (p *LiquidityPosition) Kind() Kind  { return KindLiquidityPosition }
func (p *LiquidityPosition) Key() string { return p.ID }

// LiquidityPositionSnapshot is written once and never updated.
type LiquidityPositionSnapshot struct {
	ID                        string           `json:"id"`
	LiquidityPosition         string           `json:"liquidityPosition"`
	Timestamp                 uint64           `json:"timestamp"`
	Block                     uint64           `json:"block"`
	User                      string           `json:"user"`
	Pair                      string           `json:"pair"`
	Token0PriceUSD            *decimal.Decimal `json:"token0PriceUSD"`
	Token1PriceUSD            *decimal.Decimal `json:"token1PriceUSD"`
	Reserve0                  decimal.Decimal  `json:"reserve0"`
	Reserve1                  decimal.Decimal  `json:"reserve1"`
	ReserveUSD                decimal.Decimal  `json:"reserveUSD"`
	LiquidityTokenTotalSupply decimal.Decimal  `json:"liquidityTokenTotalSupply"`
	LiquidityTokenBalance     decimal.Decimal  `json:"liquidityTokenBalance"`
}

func (s *LiquidityPositionSnapshot) Kind() Kind  { return KindPositionSnapshot }
func (s *LiquidityPositionSnapshot) Key() string { return s.ID }
