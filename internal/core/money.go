// Package core provides the domain types of the tracker and the pure
// aggregation routines built on them.
//
// This file contains money parsing and conversion helpers. Amounts are kept
// as integer cents everywhere; decimal.Decimal only appears when values
// cross a boundary (request bodies, CSV cells, JSON output, exports).
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero is a valid amount; signed,
// non-numeric or out of range values return ErrInvalidAmount.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	m, err := MoneyFromDecimal(d)
	if err != nil {
		return 0, err
	}
	return m.Cents, nil
}

// MoneyFromDecimal rounds d half-up to cents. Negative values and values that
// do not fit in int64 cents are rejected.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Decimal returns the exact decimal value of m (two fractional digits).
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the value as a float64 for chart axes and spreadsheets.
// Use Cents for any arithmetic.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns m+o and false when the sum overflows.
func (m Money) Add(o Money) (Money, bool) {
	if o.Cents > 0 && m.Cents > math.MaxInt64-o.Cents {
		return Money{}, false
	}
	if o.Cents < 0 && m.Cents < math.MinInt64-o.Cents {
		return Money{}, false
	}
	return Money{Cents: m.Cents + o.Cents}, true
}

// MarshalJSON encodes m as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
// null is rejected so that an absent amount never becomes zero.
func (m *Money) UnmarshalJSON(b []byte) error {
	if strings.TrimSpace(string(b)) == "null" {
		return ErrInvalidAmount
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return ErrInvalidAmount
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
