// Package amount converts on-chain integer amounts to exact decimals and back.
package amount

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// DivisionScale is the number of fractional digits kept by Div.
const DivisionScale int32 = 32

var (
	Zero = decimal.Zero
	One  = decimal.NewFromInt(1)
	Two  = decimal.NewFromInt(2)
)

// ToDecimal scales raw down by 10^decimals without losing precision.
func ToDecimal(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	if decimals == 0 {
		return decimal.NewFromBigInt(raw, 0)
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// ToRaw is the inverse of ToDecimal. Digits below 10^-decimals are truncated.
func ToRaw(d decimal.Decimal, decimals int32) *big.Int {
	return d.Shift(decimals).BigInt()
}

// Div returns a/b, or zero when b is zero.
func Div(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, DivisionScale)
}

// Exp10 returns 10^n.
func Exp10(n int32) decimal.Decimal {
	return decimal.New(1, n)
}

// OrZero dereferences a nullable decimal.
func OrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// Ptr returns a pointer to a copy of d.
func Ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// Parse reads a decimal string, falling back to def for empty input.
func Parse(s string, def decimal.Decimal) (decimal.Decimal, error) {
	if s == "" {
		return def, nil
	}
	return decimal.NewFromString(s)
}
