// Package types provides decimal helpers shared by reports and exporters.
package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// Quantity is a stock quantity in the product's unit of measure.
type Quantity = decimal.Decimal

// Display precision used by the exporters. Stored values are never rounded.
const (
	QuantityPlaces int32 = 4
	MoneyPlaces    int32 = 2
)

// ParseQuantity parses a non-negative quantity string.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty quantity")
	}
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse quantity: %w", err)
	}
	if q.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative quantity %s", s)
	}
	return q, nil
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}

// FormatQuantity renders q with QuantityPlaces fractional digits.
func FormatQuantity(q Quantity) string {
	return q.StringFixed(QuantityPlaces)
}

// FormatMoney renders m with MoneyPlaces fractional digits, banker's rounding.
func FormatMoney(m Money) string {
	return m.StringFixedBank(MoneyPlaces)
}

// Float converts d for sinks that only accept float64 (spreadsheet cells).
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Sum adds all values. Sum() is zero.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
