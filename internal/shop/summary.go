package shop

import "github.com/shopspring/decimal"

// TaxRate is the flat VAT applied to every order.
var TaxRate = decimal.New(10, -2)

// PointValue is the order total that earns one loyalty point.
const PointValue int64 = 25000

type Summary struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

// Summarize prices lines against the ledger's applied reward. A nil ledger
// is a guest with no reward.
func Summarize(lines []CartLine, ledger *Ledger) Summary {
	var s Summary
	for _, l := range lines {
		s.Subtotal += l.LineTotal()
	}
	s.Tax = applyRate(s.Subtotal, TaxRate)
	if ledger != nil {
		if r, ok := ledger.Applied(); ok {
			s.Discount = r.Effect.Discount(s.Subtotal)
		}
	}
	s.Total = s.Subtotal + s.Tax - s.Discount
	if s.Total < 0 {
		s.Total = 0
	}
	return s
}

func PointsEarned(total int64) int {
	if total <= 0 {
		return 0
	}
	return int(total / PointValue)
}

// applyRate rounds half away from zero to whole currency units.
func applyRate(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}
