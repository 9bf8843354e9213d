package clickhouse

import (
	"fmt"
	"time"

	"ammindexer/internal/domain"

	"github.com/shopspring/decimal"
)

// Row is one insert for Table; Values follow the table's column order.
type Row struct {
	Table  string
	Values []interface{}
}

// RowFor converts a finalized history record. Other kinds report false.
func RowFor(e domain.Entity) (Row, bool, error) {
	switch v := e.(type) {
	case *domain.Mint:
		return mintRow(v)
	case *domain.Burn:
		return burnRow(v)
	case *domain.Swap:
		return swapRow(v), true, nil
	case *domain.LiquidityPositionSnapshot:
		return snapshotRow(v), true, nil
	default:
		return Row{}, false, nil
	}
}

func mintRow(m *domain.Mint) (Row, bool, error) {
	if !m.Complete() || m.LogIndex == nil {
		return Row{}, false, fmt.Errorf("mint %s is not finalized", m.ID)
	}
	return Row{
		Table: TableMints,
		Values: []interface{}{
			m.ID,
			m.Transaction,
			unixTime(m.Timestamp),
			m.Pair,
			m.To,
			*m.Sender,
			m.Liquidity.String(),
			orZero(m.Amount0),
			orZero(m.Amount1),
			orZero(m.AmountUSD),
			*m.LogIndex,
		},
	}, true, nil
}

func burnRow(b *domain.Burn) (Row, bool, error) {
	if b.LogIndex == nil {
		return Row{}, false, fmt.Errorf("burn %s is not finalized", b.ID)
	}
	return Row{
		Table: TableBurns,
		Values: []interface{}{
			b.ID,
			b.Transaction,
			unixTime(b.Timestamp),
			b.Pair,
			deref(b.Sender),
			deref(b.To),
			b.Liquidity.String(),
			orZero(b.Amount0),
			orZero(b.Amount1),
			orZero(b.AmountUSD),
			*b.LogIndex,
			b.FeeTo,
			nullable(b.FeeLiquidity),
		},
	}, true, nil
}

func swapRow(s *domain.Swap) Row {
	return Row{
		Table: TableSwaps,
		Values: []interface{}{
			s.ID,
			s.Transaction,
			unixTime(s.Timestamp),
			s.Pair,
			s.Sender,
			s.From,
			s.To,
			s.Amount0In.String(),
			s.Amount1In.String(),
			s.Amount0Out.String(),
			s.Amount1Out.String(),
			s.AmountUSD.String(),
			s.LogIndex,
		},
	}
}

func snapshotRow(s *domain.LiquidityPositionSnapshot) Row {
	return Row{
		Table: TableSnapshots,
		Values: []interface{}{
			s.ID,
			s.LiquidityPosition,
			unixTime(s.Timestamp),
			s.Block,
			s.User,
			s.Pair,
			nullable(s.Token0PriceUSD),
			nullable(s.Token1PriceUSD),
			s.Reserve0.String(),
			s.Reserve1.String(),
			s.ReserveUSD.String(),
			s.LiquidityTokenTotalSupply.String(),
			s.LiquidityTokenBalance.String(),
		},
	}
}

func unixTime(ts uint64) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

func orZero(d *decimal.Decimal) string {
	if d == nil {
		return "0"
	}
	return d.String()
}

func nullable(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
