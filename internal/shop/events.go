package shop

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type EventType string

const (
	EventCartChanged        EventType = "CartChanged"
	EventRewardChanged      EventType = "RewardChanged"
	EventSessionChanged     EventType = "SessionChanged"
	EventOrderPlaced        EventType = "OrderPlaced"
	EventOrderStatusChanged EventType = "OrderStatusChanged"
	EventOrderDeleted       EventType = "OrderDeleted"
	EventCustomerDeleted    EventType = "CustomerDeleted"
	EventMenuChanged        EventType = "MenuChanged"
)

// Event tells subscribers that state changed. Order is set for order
// events, PreviousStatus only for status changes, Key carries the id or
// email of a deleted record.
type Event struct {
	Type           EventType
	SessionID      string
	Order          *Order
	PreviousStatus Status
	Key            string
	OccurredAt     time.Time
}

type Subscriber interface {
	Notify(ctx context.Context, ev Event)
}

type SubscriberFunc func(ctx context.Context, ev Event)

func (f SubscriberFunc) Notify(ctx context.Context, ev Event) { f(ctx, ev) }

// Bus fans events out to subscribers synchronously, in subscription order.
type Bus struct {
	mu   sync.RWMutex
	subs []Subscriber
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
}

func (b *Bus) Publish(ctx context.Context, ev Event) {
	if b == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	b.mu.RLock()
	subs := append([]Subscriber(nil), b.subs...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.Notify(ctx, ev)
	}
}

// Envelope is the wire format for published order events.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ItemID    int    `json:"item_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unit_price"`
}

type OrderPlacedPayload struct {
	OrderID       string        `json:"order_id"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	Items         []ItemQty     `json:"items"`
	Total         int64         `json:"total"`
	PointsEarned  int           `json:"points_earned"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

type OrderStatusChangedPayload struct {
	OrderID       string `json:"order_id"`
	CustomerEmail string `json:"customer_email"`
	From          Status `json:"from"`
	To            Status `json:"to"`
}

func NewOrderPlacedPayload(o Order) OrderPlacedPayload {
	items := make([]ItemQty, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, ItemQty{ItemID: l.ItemID, Name: l.Name, Qty: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return OrderPlacedPayload{
		OrderID:       o.ID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Items:         items,
		Total:         o.Total,
		PointsEarned:  o.PointsEarned,
		PaymentMethod: o.PaymentMethod,
	}
}
