package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine runs storefront operations against a Session. Cart and reward
// operations are pure state transitions; sign-in, redemption and checkout
// also persist through the Repo. Every change is announced on the Bus.
type Engine struct {
	catalog *Catalog
	rewards RewardList
	repo    *Repo
	bus     *Bus
	log     *zap.Logger
	now     func() time.Time
	newID   func() string
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithOrderIDs replaces the order id generator.
func WithOrderIDs(gen func() string) Option { return func(e *Engine) { e.newID = gen } }

func WithBus(b *Bus) Option { return func(e *Engine) { e.bus = b } }

func NewEngine(catalog *Catalog, rewards RewardList, repo *Repo, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		rewards: rewards,
		repo:    repo,
		bus:     NewBus(),
		log:     log,
		now:     time.Now,
		newID:   func() string { return "ORD-" + strings.ToUpper(uuid.NewString()) },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Catalog() *Catalog   { return e.catalog }
func (e *Engine) Rewards() RewardList { return e.rewards }
func (e *Engine) Bus() *Bus           { return e.bus }

func (e *Engine) emit(ctx context.Context, sess *Session, t EventType) {
	e.bus.Publish(ctx, Event{Type: t, SessionID: sess.ID, OccurredAt: e.now().UTC()})
}

func (e *Engine) AddQuickItem(ctx context.Context, sess *Session, itemID, qty int) (Summary, error) {
	if err := sess.Cart.AddQuickItem(e.catalog, itemID, qty); err != nil {
		return sess.Summary(), err
	}
	e.emit(ctx, sess, EventCartChanged)
	return sess.Summary(), nil
}

func (e *Engine) AddCustomizedItem(ctx context.Context, sess *Session, itemID, qty int, cz Customization) (Summary, error) {
	if err := sess.Cart.AddCustomizedItem(e.catalog, itemID, qty, cz); err != nil {
		return sess.Summary(), err
	}
	e.emit(ctx, sess, EventCartChanged)
	return sess.Summary(), nil
}

func (e *Engine) UpdateQuantity(ctx context.Context, sess *Session, index, delta int) Summary {
	if sess.Cart.UpdateQuantity(index, delta) {
		e.emit(ctx, sess, EventCartChanged)
	}
	return sess.Summary()
}

func (e *Engine) RemoveLine(ctx context.Context, sess *Session, index int) Summary {
	if sess.Cart.RemoveLine(index) {
		e.emit(ctx, sess, EventCartChanged)
	}
	return sess.Summary()
}

// PreviewLine prices a customized line the way AddCustomizedItem would,
// without touching any cart.
func (e *Engine) PreviewLine(itemID, qty int, cz Customization) (CartLine, error) {
	item, err := e.catalog.Item(itemID)
	if err != nil {
		return CartLine{}, err
	}
	return PriceLine(item, qty, &cz)
}

func (e *Engine) Register(ctx context.Context, name, email string) (Customer, error) {
	c := Customer{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if c.Name == "" || c.Email == "" {
		return Customer{}, ErrInvalidCustomer
	}
	if err := e.repo.AddCustomer(ctx, c); err != nil {
		return Customer{}, err
	}
	e.log.Info("customer registered", zap.String("email", c.Email))
	return c, nil
}

// SignIn attaches a registered customer to sess. A session that already
// belongs to someone is signed out first.
func (e *Engine) SignIn(ctx context.Context, sess *Session, email string, d Durability) (Customer, error) {
	if !d.Valid() {
		d = DurabilityPersistent
	}
	c, err := e.repo.Customer(ctx, strings.TrimSpace(email))
	if err != nil {
		return Customer{}, err
	}
	if sess.SignedIn() {
		if err := e.SignOut(ctx, sess); err != nil {
			return Customer{}, err
		}
	}
	rec := sessionRecord{Customer: c, Durability: d}
	if err := e.repo.saveSession(ctx, sess.ID, rec); err != nil {
		return Customer{}, err
	}
	sess.signIn(c, d)
	e.log.Info("customer signed in", zap.String("email", c.Email), zap.String("durability", string(d)))
	e.emit(ctx, sess, EventSessionChanged)
	return c, nil
}

// Restore rebuilds a session from its stored record. Unknown ids come
// back as an empty guest session.
func (e *Engine) Restore(ctx context.Context, id string) (*Session, error) {
	sess := NewSession(id)
	rec, err := e.repo.loadSession(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return sess, nil
	}
	if err != nil {
		return nil, err
	}
	c := rec.Customer
	if u, err := e.repo.Customer(ctx, c.Email); err == nil {
		c.Points = u.Points
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	sess.signIn(c, rec.Durability)
	return sess, nil
}

// SignOut refunds an applied reward, forgets the stored session and
// empties the cart.
func (e *Engine) SignOut(ctx context.Context, sess *Session) error {
	if !sess.SignedIn() {
		sess.Cart.Clear()
		return nil
	}
	c, _ := sess.Customer()
	if _, ok := sess.ledger.Applied(); ok {
		err := e.movePoints(ctx, sess, func(l *Ledger) error {
			l.Release()
			return nil
		})
		// a deleted customer has no balance left to refund
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	if err := e.repo.removeSession(ctx, sess.ID); err != nil {
		return err
	}
	sess.signOut()
	e.log.Info("customer signed out", zap.String("email", c.Email))
	e.emit(ctx, sess, EventSessionChanged)
	e.emit(ctx, sess, EventCartChanged)
	return nil
}

// movePoints syncs the session ledger with the stored balance and applies
// op to both while the repo is locked, so concurrent sessions of one
// customer cannot spend the same points. If op fails the ledger keeps the
// fresh balance; if the write fails the ledger is restored.
func (e *Engine) movePoints(ctx context.Context, sess *Session, op func(*Ledger) error) error {
	c, _ := sess.Customer()
	before := sess.ledger.snapshot()
	var opErr error
	_, err := e.repo.UpdatePoints(ctx, c.Email, func(stored int) (int, error) {
		sess.ledger.sync(stored)
		if opErr = op(sess.ledger); opErr != nil {
			return 0, opErr
		}
		return sess.ledger.Balance(), nil
	})
	if err != nil && opErr == nil {
		sess.ledger.restore(before)
	}
	return err
}

// RedeemReward applies a reward to the signed-in customer's cart,
// refunding any reward applied before it.
func (e *Engine) RedeemReward(ctx context.Context, sess *Session, rewardID int) (Summary, error) {
	if !sess.SignedIn() {
		return sess.Summary(), ErrNotSignedIn
	}
	if sess.Cart.IsEmpty() {
		return sess.Summary(), ErrEmptyCart
	}
	r, err := e.rewards.Find(rewardID)
	if err != nil {
		return sess.Summary(), err
	}
	if err := e.movePoints(ctx, sess, func(l *Ledger) error { return l.Redeem(r) }); err != nil {
		return sess.Summary(), err
	}
	e.log.Info("reward redeemed",
		zap.String("session", sess.ID),
		zap.String("reward", r.Name),
		zap.Int("balance", sess.ledger.Balance()))
	e.emit(ctx, sess, EventRewardChanged)
	return sess.Summary(), nil
}

// RemoveReward refunds the applied reward if it is rewardID; otherwise
// nothing happens.
func (e *Engine) RemoveReward(ctx context.Context, sess *Session, rewardID int) (Summary, error) {
	if !sess.SignedIn() {
		return sess.Summary(), nil
	}
	if r, ok := sess.ledger.Applied(); !ok || r.ID != rewardID {
		return sess.Summary(), nil
	}
	err := e.movePoints(ctx, sess, func(l *Ledger) error {
		l.Remove(rewardID)
		return nil
	})
	if err != nil {
		return sess.Summary(), err
	}
	e.emit(ctx, sess, EventRewardChanged)
	return sess.Summary(), nil
}

// OrderHistory returns the signed-in customer's own copies of their
// orders, oldest first.
func (e *Engine) OrderHistory(ctx context.Context, sess *Session) ([]Order, error) {
	c, ok := sess.Customer()
	if !ok {
		return nil, ErrNotSignedIn
	}
	all, err := e.repo.UserOrders(ctx)
	if err != nil {
		return nil, err
	}
	out := []Order{}
	for _, o := range all {
		if strings.EqualFold(o.CustomerEmail, c.Email) {
			out = append(out, o)
		}
	}
	return out, nil
}

// Checkout freezes the cart into an order, stores it for the admin and
// the customer, credits earned points and empties the cart. The customer
// copy is stored as completed while the admin copy starts pending.
func (e *Engine) Checkout(ctx context.Context, sess *Session, p Payment) (Order, error) {
	if sess.Cart.IsEmpty() {
		return Order{}, ErrEmptyCart
	}
	if err := p.validate(); err != nil {
		return Order{}, err
	}

	sum := sess.Summary()
	o := Order{
		ID:            e.newID(),
		CustomerName:  GuestName,
		CustomerEmail: GuestEmail,
		Lines:         sess.Cart.Lines(),
		Subtotal:      sum.Subtotal,
		Tax:           sum.Tax,
		Discount:      sum.Discount,
		Total:         sum.Total,
		Status:        StatusPending,
		PaymentMethod: p.Method,
		CreatedAt:     e.now().UTC(),
	}

	credited := false
	if sess.SignedIn() {
		c, _ := sess.Customer()
		o.CustomerName, o.CustomerEmail = c.Name, c.Email
		o.PointsEarned = PointsEarned(sum.Total)
		if r, ok := sess.ledger.Applied(); ok {
			o.RewardID = r.ID
		}
		earned := o.PointsEarned
		err := e.movePoints(ctx, sess, func(l *Ledger) error {
			l.credit(earned)
			return nil
		})
		switch {
		case errors.Is(err, ErrNotFound):
			// deleted by an admin while signed in; the order still goes through
			e.log.Warn("no balance to credit", zap.String("customer", c.Email))
		case err != nil:
			return Order{}, err
		default:
			credited = true
		}
	}

	userCopy := o.clone()
	userCopy.Status = StatusCompleted
	if err := e.repo.AppendOrder(ctx, o, userCopy); err != nil {
		if credited {
			earned := o.PointsEarned
			if rbErr := e.movePoints(ctx, sess, func(l *Ledger) error {
				l.withdraw(earned)
				return nil
			}); rbErr != nil {
				e.log.Error("take back points after failed checkout",
					zap.String("customer", o.CustomerEmail), zap.Error(rbErr))
			}
		}
		return Order{}, fmt.Errorf("checkout: %w", err)
	}

	if sess.SignedIn() {
		sess.ledger.consume()
	}
	sess.Cart.Clear()

	e.log.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("customer", o.CustomerEmail),
		zap.Int64("total", o.Total),
		zap.Int("points_earned", o.PointsEarned))
	placed := o.clone()
	e.bus.Publish(ctx, Event{Type: EventOrderPlaced, SessionID: sess.ID, Order: &placed, OccurredAt: o.CreatedAt})
	e.emit(ctx, sess, EventCartChanged)
	return o, nil
}
