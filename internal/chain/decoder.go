package chain

import (
	"errors"
	"fmt"
	"math/big"

	"ammindexer/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrSkipped marks logs the indexer does not consume.
	ErrSkipped = errors.New("log skipped")
	// ErrMalformed marks logs whose topics or data do not match the event.
	ErrMalformed = errors.New("malformed log")
)

var (
	topicPairCreated = factoryABI.Events["PairCreated"].ID
	topicTransfer    = pairABI.Events["Transfer"].ID
	topicSync        = pairABI.Events["Sync"].ID
	topicMint        = pairABI.Events["Mint"].ID
	topicBurn        = pairABI.Events["Burn"].ID
	topicSwap        = pairABI.Events["Swap"].ID
)

// LogEnvelope is one delivered log plus the block and transaction context the
// node does not put in the log itself.
type LogEnvelope struct {
	Log            types.Log `json:"log"`
	BlockTimestamp uint64    `json:"blockTimestamp"`
	TxFrom         string    `json:"txFrom"`
}

// SourceSet reports whether pool events from an address are indexed.
type SourceSet interface {
	Has(address string) bool
}

type Decoder struct {
	chainID uint32
	factory common.Address
	sources SourceSet
}

func NewDecoder(chainID uint32, factory string, sources SourceSet) *Decoder {
	return &Decoder{
		chainID: chainID,
		factory: common.HexToAddress(factory),
		sources: sources,
	}
}

// Decode maps a log to its typed event. Removed logs, unknown topics and pool
// events from unregistered addresses return ErrSkipped.
func (d *Decoder) Decode(env *LogEnvelope) (domain.Event, error) {
	lg := &env.Log
	if lg.Removed {
		return nil, fmt.Errorf("%w: removed log", ErrSkipped)
	}
	if len(lg.Topics) == 0 {
		return nil, fmt.Errorf("%w: anonymous log", ErrSkipped)
	}

	meta := domain.EventMeta{
		ChainID:     d.chainID,
		Address:     domain.AddressID(lg.Address),
		TxHash:      lg.TxHash.Hex(),
		LogIndex:    uint64(lg.Index),
		BlockNumber: lg.BlockNumber,
		Timestamp:   env.BlockTimestamp,
	}
	if env.TxFrom != "" {
		meta.TxFrom = domain.NormalizeAddress(env.TxFrom)
	}

	topic := lg.Topics[0]
	if topic == topicPairCreated {
		if lg.Address != d.factory {
			return nil, fmt.Errorf("%w: PairCreated from %s", ErrSkipped, meta.Address)
		}
		return decodePairCreated(meta, lg)
	}

	if !d.sources.Has(meta.Address) {
		return nil, fmt.Errorf("%w: unregistered source %s", ErrSkipped, meta.Address)
	}

	switch topic {
	case topicTransfer:
		return decodeTransfer(meta, lg)
	case topicSync:
		return decodeSync(meta, lg)
	case topicMint:
		return decodeMint(meta, lg)
	case topicBurn:
		return decodeBurn(meta, lg)
	case topicSwap:
		return decodeSwap(meta, lg)
	default:
		return nil, fmt.Errorf("%w: unknown topic %s", ErrSkipped, topic.Hex())
	}
}

func topicAddress(lg *types.Log, i int) string {
	return domain.AddressID(common.BytesToAddress(lg.Topics[i].Bytes()))
}

func unpack(lg *types.Log, event string, topics int, fields int) ([]interface{}, error) {
	if len(lg.Topics) != topics {
		return nil, fmt.Errorf("%w: %s with %d topics", ErrMalformed, event, len(lg.Topics))
	}

	contract := pairABI
	if event == "PairCreated" {
		contract = factoryABI
	}

	values, err := contract.Unpack(event, lg.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, event, err)
	}
	if len(values) != fields {
		return nil, fmt.Errorf("%w: %s with %d fields", ErrMalformed, event, len(values))
	}
	return values, nil
}

func bigAt(values []interface{}, i int) (*big.Int, error) {
	v, ok := values[i].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: field %d is %T", ErrMalformed, i, values[i])
	}
	return v, nil
}

func bigs(values []interface{}) ([]*big.Int, error) {
	out := make([]*big.Int, len(values))
	for i := range values {
		v, err := bigAt(values, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodePairCreated(meta domain.EventMeta, lg *types.Log) (domain.Event, error) {
	values, err := unpack(lg, "PairCreated", 3, 3)
	if err != nil {
		return nil, err
	}

	stable, ok := values[0].(bool)
	if !ok {
		return nil, fmt.Errorf("%w: stable is %T", ErrMalformed, values[0])
	}
	pair, ok := values[1].(common.Address)
	if !ok {
		return nil, fmt.Errorf("%w: pair is %T", ErrMalformed, values[1])
	}

	return &domain.PairCreatedEvent{
		EventMeta: meta,
		Token0:    topicAddress(lg, 1),
		Token1:    topicAddress(lg, 2),
		Pair:      domain.AddressID(pair),
		Stable:    stable,
	}, nil
}

func decodeTransfer(meta domain.EventMeta, lg *types.Log) (domain.Event, error) {
	values, err := unpack(lg, "Transfer", 3, 1)
	if err != nil {
		return nil, err
	}
	value, err := bigAt(values, 0)
	if err != nil {
		return nil, err
	}

	return &domain.TransferEvent{
		EventMeta: meta,
		From:      topicAddress(lg, 1),
		To:        topicAddress(lg, 2),
		Value:     value,
	}, nil
}

func decodeSync(meta domain.EventMeta, lg *types.Log) (domain.Event, error) {
	values, err := unpack(lg, "Sync", 1, 2)
	if err != nil {
		return nil, err
	}
	v, err := bigs(values)
	if err != nil {
		return nil, err
	}

	return &domain.SyncEvent{EventMeta: meta, Reserve0: v[0], Reserve1: v[1]}, nil
}

func decodeMint(meta domain.EventMeta, lg *types.Log) (domain.Event, error) {
	values, err := unpack(lg, "Mint", 2, 2)
	if err != nil {
		return nil, err
	}
	v, err := bigs(values)
	if err != nil {
		return nil, err
	}

	return &domain.MintEvent{
		EventMeta: meta,
		Sender:    topicAddress(lg, 1),
		Amount0:   v[0],
		Amount1:   v[1],
	}, nil
}

func decodeBurn(meta domain.EventMeta, lg *types.Log) (domain.Event, error) {
	values, err := unpack(lg, "Burn", 3, 2)
	if err != nil {
		return nil, err
	}
	v, err := bigs(values)
	if err != nil {
		return nil, err
	}

	return &domain.BurnEvent{
		EventMeta: meta,
		Sender:    topicAddress(lg, 1),
		Amount0:   v[0],
		Amount1:   v[1],
		To:        topicAddress(lg, 2),
	}, nil
}

func decodeSwap(meta domain.EventMeta, lg *types.Log) (domain.Event, error) {
	values, err := unpack(lg, "Swap", 3, 4)
	if err != nil {
		return nil, err
	}
	v, err := bigs(values)
	if err != nil {
		return nil, err
	}

	return &domain.SwapEvent{
		EventMeta:  meta,
		Sender:     topicAddress(lg, 1),
		Amount0In:  v[0],
		Amount1In:  v[1],
		Amount0Out: v[2],
		Amount1Out: v[3],
		To:         topicAddress(lg, 2),
	}, nil
}
