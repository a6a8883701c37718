// Package pricing holds the only money-rounding rules in the system.
// Checkout and payout accounting must both go through Splitter so the
// platform/brand split never drifts between them.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Splitter divides a line total between platform commission and brand
// payout. Pure; amounts are minor currency units.
type Splitter struct {
	percent decimal.Decimal
}

func NewSplitter(commissionPercent int64) Splitter {
	return Splitter{percent: decimal.NewFromInt(commissionPercent)}
}

// Split returns (commission, brandAmount) with commission rounded half-up
// and the remainder assigned to brandAmount, so the two always sum exactly
// to amount.
func (s Splitter) Split(amount int64) (int64, int64) {
	commission := decimal.NewFromInt(amount).
		Mul(s.percent).
		Div(hundred).
		Round(0).
		IntPart()
	return commission, amount - commission
}

// Discount applies a whole-percentage coupon discount to a line total,
// rounding the result down to the nearest minor unit.
func Discount(amount int64, discountPercent int64) int64 {
	if discountPercent <= 0 {
		return amount
	}
	return decimal.NewFromInt(amount).
		Mul(hundred.Sub(decimal.NewFromInt(discountPercent))).
		Div(hundred).
		Floor().
		IntPart()
}
