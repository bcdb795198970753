package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoneyMultiplyBps(t *testing.T) {
	// $100 stake at the default x1.9 multiplier pays $190 exactly.
	stake := NewMoney(100_000_000)
	payout := stake.MultiplyBps(DefaultPayoutMultiplierBps)
	assert.Equal(t, int64(190_000_000), payout.Amount)
	assert.Equal(t, "190.00 USD", payout.String())
}

func TestMoneyMultiplyBpsRoundsDown(t *testing.T) {
	// 1 micro at x1.9 truncates instead of accumulating dust.
	m := NewMoney(1)
	assert.Equal(t, int64(1), m.MultiplyBps(19000).Amount)

	m = NewMoney(3)
	assert.Equal(t, int64(5), m.MultiplyBps(19000).Amount) // 5.7 -> 5
}

func TestMoneyPercent(t *testing.T) {
	stake := NewMoney(100_000_000)
	assert.Equal(t, int64(10_000_000), stake.Percent(10).Amount)
	assert.Equal(t, int64(3_000_000), stake.Percent(3).Amount)
	assert.Equal(t, int64(2_000_000), stake.Percent(2).Amount)
}

func TestFromDollars(t *testing.T) {
	d := decimal.RequireFromString("10.50")
	assert.Equal(t, int64(10_500_000), FromDollars(d))
}

func TestReferralCommissionRate(t *testing.T) {
	assert.Equal(t, 10, ReferralCommissionRate(1))
	assert.Equal(t, 3, ReferralCommissionRate(2))
	assert.Equal(t, 2, ReferralCommissionRate(3))
	assert.Equal(t, 0, ReferralCommissionRate(4))
	assert.Equal(t, 0, ReferralCommissionRate(0))
}
