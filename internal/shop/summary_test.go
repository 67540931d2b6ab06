package shop

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(unit int64, qty int) CartLine {
	return CartLine{ItemID: 1, Name: "x", UnitPrice: unit, Quantity: qty}
}

func TestSummarize_NoReward(t *testing.T) {
	s := Summarize([]CartLine{line(100000, 2)}, nil)
	assert.Equal(t, Summary{Subtotal: 200000, Tax: 20000, Discount: 0, Total: 220000}, s)
}

func TestSummarize_PercentReward(t *testing.T) {
	l := NewLedger(100)
	r, _ := DefaultRewards().Find(3)
	assert.NoError(t, l.Redeem(r))

	s := Summarize([]CartLine{line(100000, 2)}, l)
	assert.Equal(t, int64(20000), s.Discount)
	assert.Equal(t, int64(200000), s.Total)
}

func TestSummarize_FlatRewardFloorsAtZero(t *testing.T) {
	l := NewLedger(100)
	r, _ := DefaultRewards().Find(1)
	assert.NoError(t, l.Redeem(r))

	s := Summarize([]CartLine{line(50000, 1)}, l)
	assert.Equal(t, int64(5000), s.Tax)
	assert.Equal(t, int64(125000), s.Discount)
	assert.Equal(t, int64(0), s.Total)
}

func TestSummarize_SubtotalIsSumOfLines(t *testing.T) {
	lines := []CartLine{line(87500, 3), line(118750, 1), line(131250, 2)}
	s := Summarize(lines, nil)

	var want int64
	for _, l := range lines {
		want += l.UnitPrice * int64(l.Quantity)
	}
	assert.Equal(t, want, s.Subtotal)
	assert.Equal(t, decimal.NewFromInt(want).Mul(TaxRate).Round(0).IntPart(), s.Tax)
	assert.Equal(t, s.Subtotal+s.Tax, s.Total)
}

func TestSummarize_TaxRounding(t *testing.T) {
	// 18,755 * 0.10 = 1,875.5 rounds up.
	s := Summarize([]CartLine{line(18755, 1)}, nil)
	assert.Equal(t, int64(1876), s.Tax)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil, NewLedger(10)))
}

func TestPointsEarned(t *testing.T) {
	assert.Equal(t, 8, PointsEarned(220000))
	assert.Equal(t, 0, PointsEarned(24999))
	assert.Equal(t, 1, PointsEarned(25000))
	assert.Equal(t, 0, PointsEarned(0))
}
