// Package money holds the decimal helpers shared by checkout, reconciliation
// and the display layers. Everything here is pure.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// minorUnitExp is the number of fractional digits of the settlement
// currencies we charge in.
const minorUnitExp = 2

var hundred = decimal.NewFromInt(100)

// ToMinor converts an amount into the gateway's smallest currency unit,
// rounding half away from zero.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Shift(minorUnitExp).Round(0).IntPart()
}

// FromMinor converts an amount in the smallest currency unit back to a decimal.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnitExp)
}

// HasWholeCents reports whether amount is representable in minor units
// without rounding.
func HasWholeCents(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(minorUnitExp))
}

// Convert applies rate to amount and rounds to the settlement currency's
// precision.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(minorUnitExp)
}

// PercentFunded returns how much of goal is covered by raised, floored and
// capped to the 0..100 range.
func PercentFunded(raised, goal decimal.Decimal) int {
	if !goal.IsPositive() || !raised.IsPositive() {
		return 0
	}

	pct := raised.Mul(hundred).Div(goal).Floor()
	if pct.GreaterThan(hundred) {
		return 100
	}

	return int(pct.IntPart())
}

// Format renders amount with grouping for the given locale, prefixed with the
// upper-cased ISO currency code, e.g. "KZT 250,000.00". Whole units and cents
// are formatted separately so amounts past float64 precision stay exact.
func Format(amount decimal.Decimal, currency string, tag language.Tag) string {
	p := message.NewPrinter(tag)

	rounded := amount.Round(minorUnitExp)
	abs := rounded.Abs()
	whole := abs.Truncate(0)
	cents := abs.Sub(whole).Shift(minorUnitExp).IntPart()

	s := p.Sprint(number.Decimal(whole.IntPart())) + decimalSeparator(p) + fmt.Sprintf("%02d", cents)
	if rounded.IsNegative() {
		s = "-" + s
	}

	if currency == "" {
		return s
	}

	return strings.ToUpper(currency) + " " + s
}

// decimalSeparator reads the locale's decimal separator off a formatted
// sample; x/text does not export its symbol tables.
func decimalSeparator(p *message.Printer) string {
	sample := p.Sprint(number.Decimal(1.5))
	if sep := strings.TrimSuffix(strings.TrimPrefix(sample, "1"), "5"); sep != sample {
		return sep
	}

	return "."
}
