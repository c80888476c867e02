package shared

import "github.com/shopspring/decimal"

// Fixed renders an amount the way every report serialises money: two fractional digits.
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// MaxZero clamps negative amounts to zero.
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
