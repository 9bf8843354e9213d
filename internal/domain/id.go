package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AddressZero is the burn address as stored in ids.
const AddressZero = "0x0000000000000000000000000000000000000000"

// NormalizeAddress returns the lowercase 0x-prefixed form used for every id.
func NormalizeAddress(addr string) string {
	return strings.ToLower(common.HexToAddress(addr).Hex())
}

// AddressID renders a go-ethereum address as an id.
func AddressID(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// EventID = "<chain_id>:<tx_hash>:<log_index>"
func MakeEventID(chainID uint32, txHash string, logIndex uint64) string {
	return fmt.Sprintf("%d:%s:%d", chainID, strings.ToLower(txHash), logIndex)
}

type ParsedEventID struct {
	ChainID  uint32
	TxHash   string
	LogIndex uint64
}

func ParseEventID(id string) (ParsedEventID, error) {
	var out ParsedEventID
	parts := strings.Split(id, ":")
	if len(parts) != 3 {
		return out, fmt.Errorf("invalid event_id format: %s", id)
	}

	chain, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return out, fmt.Errorf("invalid chain_id, err=%v", err)
	}

	logIdx, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return out, fmt.Errorf("invalid log_index, err=%v", err)
	}

	out.ChainID = uint32(chain)
	out.TxHash = strings.ToLower(parts[1])
	out.LogIndex = logIdx

	return out, nil
}

// RecordID = "<tx_hash>-<ordinal>" for mints, burns and swaps.
func RecordID(txHash string, ordinal int) string {
	return txHash + "-" + strconv.Itoa(ordinal)
}

// PositionID = "<pair>-<user>"
func PositionID(pair, user string) string {
	return pair + "-" + user
}

// SnapshotID = "<position_id><timestamp>"
func SnapshotID(positionID string, timestamp uint64) string {
	return positionID + strconv.FormatUint(timestamp, 10)
}
