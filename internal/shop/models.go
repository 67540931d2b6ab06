package shop

import (
	"strings"
	"time"
)

const (
	GuestName  = "Guest"
	GuestEmail = "guest@example.com"
)

type Customer struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Points int    `json:"points"`
}

type PaymentMethod string

const (
	PaymentCard    PaymentMethod = "card"
	PaymentCash    PaymentMethod = "cash"
	PaymentEWallet PaymentMethod = "ewallet"
)

type CardDetails struct {
	Number string `json:"cardNumber"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

type Payment struct {
	Method PaymentMethod `json:"method"`
	Card   CardDetails   `json:"card"`
}

func (p Payment) validate() error {
	switch p.Method {
	case PaymentCard:
		if strings.TrimSpace(p.Card.Number) == "" ||
			strings.TrimSpace(p.Card.Expiry) == "" ||
			strings.TrimSpace(p.Card.CVV) == "" {
			return ErrMissingPaymentDetails
		}
	case PaymentCash, PaymentEWallet:
	default:
		return ErrInvalidPaymentMethod
	}
	return nil
}

// Order is frozen at checkout. Only the admin dashboard changes its
// status afterwards.
type Order struct {
	ID            string        `json:"id"`
	CustomerName  string        `json:"customerName"`
	CustomerEmail string        `json:"customerEmail"`
	Lines         []CartLine    `json:"items"`
	Subtotal      int64         `json:"subtotal"`
	Tax           int64         `json:"tax"`
	Discount      int64         `json:"discount"`
	Total         int64         `json:"total"`
	RewardID      int           `json:"rewardId,omitempty"`
	PointsEarned  int           `json:"pointsEarned"`
	Status        Status        `json:"status"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	CreatedAt     time.Time     `json:"date"`
}

func (o Order) clone() Order {
	o.Lines = cloneLines(o.Lines)
	return o
}

// Durability picks where a signed-in session is remembered.
type Durability string

const (
	DurabilityPersistent Durability = "persistent"
	DurabilityTab        Durability = "tab"
)

func (d Durability) Valid() bool {
	return d == DurabilityPersistent || d == DurabilityTab
}
