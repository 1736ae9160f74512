// Package numeric provides decimal helpers for exchange wire values.
package numeric

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders d the way the exchange expects decimal strings: no exponent
// and no trailing zeros.
func Format(d decimal.Decimal) string {
	return d.String()
}

// Parse converts a decimal string into a decimal value.
// Empty input and malformed input return (zero, false).
func Parse(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Quantize rounds value toward zero to a whole multiple of increment.
// A zero or negative increment returns value unchanged.
func Quantize(value, increment decimal.Decimal) decimal.Decimal {
	if increment.Sign() <= 0 {
		return value
	}
	steps := value.Div(increment).Truncate(0)
	return steps.Mul(increment)
}
