package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyExponent is the number of fractional digits kept for ledger amounts.
// Amounts are persisted as integer minor units so balance increments and
// sums stay exact in SQL.
const MoneyExponent = 2

// Epsilon is the tolerance used when statements compare totals.
var Epsilon = decimal.New(1, -MoneyExponent)

var minorUnit = decimal.New(1, MoneyExponent)

// ToMinorUnits converts 10.50 to 1050. Amounts with more than two
// fractional digits are rejected rather than silently rounded.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	scaled := amount.Mul(minorUnit)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, amount, MoneyExponent)
	}
	return scaled.IntPart(), nil
}

// FromMinorUnits converts 1050 back to 10.50.
func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.New(units, -MoneyExponent)
}

// RoundMoney rounds half away from zero to ledger precision.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyExponent)
}

// FormatAmount renders an amount with two decimals, negative values in
// parentheses.
func FormatAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return "(" + d.Neg().StringFixed(MoneyExponent) + ")"
	}
	return d.StringFixed(MoneyExponent)
}

// WithinEpsilon reports whether a and b differ by less than Epsilon.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}
