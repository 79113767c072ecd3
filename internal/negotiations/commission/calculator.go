// Package commission computes commission amounts for closed negotiations.
// The calculation is a pure function: no I/O, no hidden state.
package commission

import (
	"imobcrm_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Calculate returns sale value x rate percent / 100, rounded half-up to two
// decimal places. Negative sale values and rates outside [0, 100] are
// rejected before any arithmetic.
func Calculate(saleValue, ratePercent decimal.Decimal) (decimal.Decimal, error) {
	if saleValue.IsNegative() {
		return decimal.Zero, apperr.Validation("sale value must not be negative")
	}
	if ratePercent.IsNegative() || ratePercent.GreaterThan(oneHundred) {
		return decimal.Zero, apperr.Validation("rate percent must be between 0 and 100")
	}

	amount := saleValue.Mul(ratePercent).Div(oneHundred)
	// Round is half away from zero, which for non-negative amounts is half-up.
	return amount.Round(2), nil
}
