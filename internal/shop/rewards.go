package shop

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type EffectKind string

const (
	EffectFlat    EffectKind = "flat"
	EffectPercent EffectKind = "percent"
)

// DiscountEffect is either a flat amount or a share of the subtotal.
type DiscountEffect struct {
	Kind   EffectKind      `json:"kind"`
	Amount int64           `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
}

func FlatAmount(v int64) DiscountEffect {
	return DiscountEffect{Kind: EffectFlat, Amount: v}
}

func PercentOfSubtotal(rate decimal.Decimal) DiscountEffect {
	return DiscountEffect{Kind: EffectPercent, Rate: rate}
}

// Discount returns the amount taken off an order with the given subtotal.
func (e DiscountEffect) Discount(subtotal int64) int64 {
	switch e.Kind {
	case EffectFlat:
		return e.Amount
	case EffectPercent:
		return applyRate(subtotal, e.Rate)
	}
	return 0
}

type RewardDefinition struct {
	ID        int            `json:"id"`
	Name      string         `json:"name"`
	PointCost int            `json:"points"`
	Effect    DiscountEffect `json:"effect"`
}

type RewardList []RewardDefinition

func DefaultRewards() RewardList {
	return RewardList{
		{ID: 1, Name: "Free Coffee", PointCost: 100, Effect: FlatAmount(125000)},
		{ID: 2, Name: "Free Pastry", PointCost: 75, Effect: FlatAmount(87500)},
		{ID: 3, Name: "10% Off", PointCost: 50, Effect: PercentOfSubtotal(decimal.New(10, -2))},
		{ID: 4, Name: "Free Upgrade", PointCost: 150, Effect: FlatAmount(50000)},
	}
}

func (rl RewardList) Find(id int) (RewardDefinition, error) {
	for _, r := range rl {
		if r.ID == id {
			return r, nil
		}
	}
	return RewardDefinition{}, fmt.Errorf("reward %d: %w", id, ErrNotFound)
}

// Ledger holds a customer's point balance and the one reward currently
// applied to their cart. The balance never goes negative.
type Ledger struct {
	balance int
	applied *RewardDefinition
}

func NewLedger(balance int) *Ledger {
	if balance < 0 {
		balance = 0
	}
	return &Ledger{balance: balance}
}

func (l *Ledger) Balance() int { return l.balance }

func (l *Ledger) Applied() (RewardDefinition, bool) {
	if l.applied == nil {
		return RewardDefinition{}, false
	}
	return *l.applied, true
}

// Redeem applies r, first refunding whatever reward was applied before.
// Nothing changes when the refunded balance cannot cover r.
func (l *Ledger) Redeem(r RewardDefinition) error {
	available := l.balance
	if l.applied != nil {
		available += l.applied.PointCost
	}
	if available < r.PointCost {
		return fmt.Errorf("%s needs %d points, have %d: %w", r.Name, r.PointCost, available, ErrInsufficientPoints)
	}
	l.balance = available - r.PointCost
	l.applied = &r
	return nil
}

// Remove refunds and clears the applied reward if it is rewardID.
func (l *Ledger) Remove(rewardID int) bool {
	if l.applied == nil || l.applied.ID != rewardID {
		return false
	}
	return l.Release()
}

// Release refunds and clears any applied reward.
func (l *Ledger) Release() bool {
	if l.applied == nil {
		return false
	}
	l.balance += l.applied.PointCost
	l.applied = nil
	return true
}

// consume drops the applied reward without a refund; its points were
// spent on the order that used it.
func (l *Ledger) consume() {
	l.applied = nil
}

func (l *Ledger) credit(points int) {
	if points > 0 {
		l.balance += points
	}
}

// withdraw takes back credited points, stopping at zero.
func (l *Ledger) withdraw(points int) {
	l.balance -= points
	if l.balance < 0 {
		l.balance = 0
	}
}

// sync replaces the balance with the stored one; the applied reward's
// cost is already deducted from it.
func (l *Ledger) sync(stored int) {
	if stored < 0 {
		stored = 0
	}
	l.balance = stored
}

func (l *Ledger) snapshot() Ledger { return *l }

func (l *Ledger) restore(s Ledger) { *l = s }
