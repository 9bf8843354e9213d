package clickhouse

import (
	"fmt"
	"strings"
)

const (
	TableMints     = "mints"
	TableBurns     = "burns"
	TableSwaps     = "swaps"
	TableSnapshots = "liquidity_position_snapshots"
)

type column struct {
	name string
	typ  string
}

type table struct {
	name    string
	columns []column
	orderBy string
}

// Amounts travel as strings into Decimal(76,18) columns.
const amountType = "Decimal(76, 18)"

var tables = []table{
	{
		name: TableMints,
		columns: []column{
			{"id", "String"},
			{"transaction", "String"},
			{"timestamp", "DateTime"},
			{"pair", "LowCardinality(String)"},
			{"to", "String"},
			{"sender", "String"},
			{"liquidity", amountType},
			{"amount0", amountType},
			{"amount1", amountType},
			{"amount_usd", amountType},
			{"log_index", "UInt64"},
		},
		orderBy: "(pair, timestamp, id)",
	},
	{
		name: TableBurns,
		columns: []column{
			{"id", "String"},
			{"transaction", "String"},
			{"timestamp", "DateTime"},
			{"pair", "LowCardinality(String)"},
			{"sender", "String"},
			{"to", "String"},
			{"liquidity", amountType},
			{"amount0", amountType},
			{"amount1", amountType},
			{"amount_usd", amountType},
			{"log_index", "UInt64"},
			{"fee_to", "Nullable(String)"},
			{"fee_liquidity", "Nullable(" + amountType + ")"},
		},
		orderBy: "(pair, timestamp, id)",
	},
	{
		name: TableSwaps,
		columns: []column{
			{"id", "String"},
			{"transaction", "String"},
			{"timestamp", "DateTime"},
			{"pair", "LowCardinality(String)"},
			{"sender", "String"},
			{"from", "String"},
			{"to", "String"},
			{"amount0_in", amountType},
			{"amount1_in", amountType},
			{"amount0_out", amountType},
			{"amount1_out", amountType},
			{"amount_usd", amountType},
			{"log_index", "UInt64"},
		},
		orderBy: "(pair, timestamp, id)",
	},
	{
		name: TableSnapshots,
		columns: []column{
			{"id", "String"},
			{"liquidity_position", "String"},
			{"timestamp", "DateTime"},
			{"block", "UInt64"},
			{"user", "String"},
			{"pair", "LowCardinality(String)"},
			{"token0_price_usd", "Nullable(" + amountType + ")"},
			{"token1_price_usd", "Nullable(" + amountType + ")"},
			{"reserve0", amountType},
			{"reserve1", amountType},
			{"reserve_usd", amountType},
			{"lp_total_supply", amountType},
			{"lp_balance", amountType},
		},
		orderBy: "(pair, user, timestamp)",
	},
}

func tableByName(name string) (table, bool) {
	for _, t := range tables {
		if t.name == name {
			return t, true
		}
	}
	return table{}, false
}

func (t table) columnNames() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = "`" + c.name + "`"
	}
	return out
}

func (t table) insert() string {
	return fmt.Sprintf("INSERT INTO %s (%s)", t.name, strings.Join(t.columnNames(), ", "))
}

// ddl uses ReplacingMergeTree so a redelivered row collapses onto its id.
func (t table) ddl() string {
	defs := make([]string, len(t.columns))
	for i, c := range t.columns {
		defs[i] = fmt.Sprintf("`%s` %s", c.name, c.typ)
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s) ENGINE = ReplacingMergeTree ORDER BY %s",
		t.name, strings.Join(defs, ", "), t.orderBy,
	)
}
