package domain

import "math/big"

// EventMeta is the log context shared by every event.
type EventMeta struct {
	ChainID     uint32 `json:"chainId"`
	Address     string `json:"address"` // emitting contract
	TxHash      string `json:"txHash"`
	TxFrom      string `json:"txFrom"` // origin account
	LogIndex    uint64 `json:"logIndex"`
	BlockNumber uint64 `json:"blockNumber"`
	Timestamp   uint64 `json:"timestamp"`
}

func (m EventMeta) EventID() string {
	return MakeEventID(m.ChainID, m.TxHash, m.LogIndex)
}

type Event interface {
	Name() string
	Meta() EventMeta
}

type PairCreatedEvent struct {
	EventMeta
	Token0 string
	Token1 string
	Pair   string
	Stable bool
}

type TransferEvent struct {
	EventMeta
	From  string
	To    string
	Value *big.Int
}

type SyncEvent struct {
	EventMeta
	Reserve0 *big.Int
	Reserve1 *big.Int
}

type MintEvent struct {
	EventMeta
	Sender  string
	Amount0 *big.Int
	Amount1 *big.Int
}

type BurnEvent struct {
	EventMeta
	Sender  string
	Amount0 *big.Int
	Amount1 *big.Int
	To      string
}

type SwapEvent struct {
	EventMeta
	Sender     string
	Amount0In  *big.Int
	Amount1In  *big.Int
	Amount0Out *big.Int
	Amount1Out *big.Int
	To         string
}

func (e *PairCreatedEvent) Name() string { return "PairCreated" }
func (e *TransferEvent) Name() string    { return "Transfer" }
func (e *SyncEvent) Name() string        { return "Sync" }
func (e *MintEvent) Name() string        { return "Mint" }
func (e *BurnEvent) Name() string        { return "Burn" }
func (e *SwapEvent) Name() string        { return "Swap" }

func (e *PairCreatedEvent) Meta() EventMeta { return e.EventMeta }
func (e *TransferEvent) Meta() EventMeta    { return e.EventMeta }
func (e *SyncEvent) Meta() EventMeta        { return e.EventMeta }
func (e *MintEvent) Meta() EventMeta        { return e.EventMeta }
func (e *BurnEvent) Meta() EventMeta        { return e.EventMeta }
func (e *SwapEvent) Meta() EventMeta        { return e.EventMeta }
