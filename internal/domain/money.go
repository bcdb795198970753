package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a USD amount stored as BIGINT micros (10^-6) to
// avoid floating point errors.
type Money struct {
	Amount int64 // micros
}

// NewMoney creates a Money instance from micros.
func NewMoney(amount int64) Money {
	return Money{Amount: amount}
}

// FromDollars converts a decimal dollar amount to micros.
func FromDollars(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(1_000_000)).IntPart()
}

// ToDecimal converts the micros amount to a shopspring decimal in dollars.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(1_000_000))
}

// MultiplyBps scales the amount by a basis-point factor, rounding down.
// Used for payout multipliers (19000 bps = x1.9) and interest rates.
func (m Money) MultiplyBps(bps int32) Money {
	scaled := decimal.NewFromInt(m.Amount).
		Mul(decimal.NewFromInt32(bps)).
		Div(decimal.NewFromInt(10_000))
	return Money{Amount: scaled.IntPart()}
}

// Percent returns rate% of the amount, rounding down.
func (m Money) Percent(rate int) Money {
	scaled := decimal.NewFromInt(m.Amount).
		Mul(decimal.NewFromInt(int64(rate))).
		Div(decimal.NewFromInt(100))
	return Money{Amount: scaled.IntPart()}
}

// String returns the dollar representation, e.g. "190.00 USD".
func (m Money) String() string {
	return fmt.Sprintf("%s USD", m.ToDecimal().StringFixed(2))
}
