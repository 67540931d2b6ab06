package shop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-coffee-orders/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errStoreDown = errors.New("store down")

// flakyStore fails writes to one collection while failing is set.
type flakyStore struct {
	*storage.Memory
	mu         sync.Mutex
	failOn     string
	failWrites bool
}

func (f *flakyStore) Set(ctx context.Context, collection, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failWrites && collection == f.failOn
	f.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return f.Memory.Set(ctx, collection, key, value)
}

func (f *flakyStore) fail(collection string) {
	f.mu.Lock()
	f.failOn, f.failWrites = collection, true
	f.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(_ context.Context, ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	store  *flakyStore
	repo   *Repo
	engine *Engine
	events *recorder
	seq    int
}

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: &flakyStore{Memory: storage.NewMemory()}, events: &recorder{}}
	f.repo = NewRepo(f.store)
	bus := NewBus()
	bus.Subscribe(f.events)
	f.engine = NewEngine(DefaultCatalog(), DefaultRewards(), f.repo, zap.NewNop(),
		WithBus(bus),
		WithClock(func() time.Time { return fixedNow }),
		WithOrderIDs(func() string {
			f.seq++
			return fmt.Sprintf("ORD-%03d", f.seq)
		}),
	)
	return f
}

// signedIn registers a customer with points and signs them in.
func (f *fixture) signedIn(t *testing.T, points int) *Session {
	t.Helper()
	ctx := context.Background()
	_, err := f.engine.Register(ctx, "Lan Nguyen", "lan@example.com")
	require.NoError(t, err)
	f.setPoints(t, "lan@example.com", points)
	sess := NewSession("s-1")
	_, err = f.engine.SignIn(ctx, sess, "lan@example.com", DurabilityPersistent)
	require.NoError(t, err)
	return sess
}

func (f *fixture) setPoints(t *testing.T, email string, points int) {
	t.Helper()
	_, err := f.repo.UpdatePoints(context.Background(), email, func(int) (int, error) { return points, nil })
	require.NoError(t, err)
}

func (f *fixture) points(t *testing.T, email string) int {
	t.Helper()
	c, err := f.repo.Customer(context.Background(), email)
	require.NoError(t, err)
	return c.Points
}

func TestEngine_CartOperationsEmitEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := NewSession("guest")

	sum, err := f.engine.AddCustomizedItem(ctx, sess, 1, 2, Customization{Size: SizeMedium, Milk: MilkRegular})
	require.NoError(t, err)
	assert.Equal(t, Summary{Subtotal: 200000, Tax: 20000, Total: 220000}, sum)

	_, err = f.engine.AddQuickItem(ctx, sess, 99, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	sum = f.engine.UpdateQuantity(ctx, sess, 0, -1)
	assert.Equal(t, int64(100000), sum.Subtotal)
	f.engine.UpdateQuantity(ctx, sess, 7, 1)
	sum = f.engine.RemoveLine(ctx, sess, 0)
	assert.Equal(t, Summary{}, sum)

	assert.Equal(t, []EventType{EventCartChanged, EventCartChanged, EventCartChanged}, f.events.types())
}

func TestEngine_PreviewLine(t *testing.T) {
	f := newFixture(t)
	l, err := f.engine.PreviewLine(5, 3, Customization{Size: SizeLarge, Milk: "Oat", Ice: "No Ice"})
	require.NoError(t, err)
	assert.Equal(t, int64(137500), l.UnitPrice)
	assert.Equal(t, int64(412500), l.LineTotal())
}

func TestEngine_RegisterAndSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Register(ctx, " ", "x@example.com")
	assert.ErrorIs(t, err, ErrInvalidCustomer)

	_, err = f.engine.Register(ctx, "Minh", "minh@example.com")
	require.NoError(t, err)
	_, err = f.engine.Register(ctx, "Minh again", "MINH@example.com")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	sess := NewSession("tab-1")
	_, err = f.engine.SignIn(ctx, sess, "nobody@example.com", DurabilityTab)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, sess.SignedIn())

	c, err := f.engine.SignIn(ctx, sess, "minh@example.com", DurabilityTab)
	require.NoError(t, err)
	assert.Equal(t, "Minh", c.Name)
	assert.Equal(t, DurabilityTab, sess.Durability())

	_, err = f.store.Get(ctx, storage.CollectionSessionTab, "tab-1")
	assert.NoError(t, err)
	_, err = f.store.Get(ctx, storage.CollectionSessionLocal, "tab-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEngine_RestoreSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signedIn(t, 40)
	f.setPoints(t, "lan@example.com", 55)

	sess, err := f.engine.Restore(ctx, "s-1")
	require.NoError(t, err)
	c, ok := sess.Customer()
	require.True(t, ok)
	assert.Equal(t, 55, c.Points)

	guest, err := f.engine.Restore(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, guest.SignedIn())
}

func TestEngine_RedeemRequiresSignInAndItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	guest := NewSession("g")
	_, err := f.engine.AddQuickItem(ctx, guest, 1, 1)
	require.NoError(t, err)
	_, err = f.engine.RedeemReward(ctx, guest, 3)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	sess := f.signedIn(t, 200)
	_, err = f.engine.RedeemReward(ctx, sess, 3)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.engine.AddQuickItem(ctx, sess, 1, 1)
	require.NoError(t, err)
	_, err = f.engine.RedeemReward(ctx, sess, 77)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 200, sess.Ledger().Balance())
}

func TestEngine_RedeemPersistsBalanceAndDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signedIn(t, 120)

	_, err := f.engine.AddCustomizedItem(ctx, sess, 1, 2, Customization{Size: SizeMedium, Milk: MilkRegular})
	require.NoError(t, err)

	sum, err := f.engine.RedeemReward(ctx, sess, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), sum.Discount)
	assert.Equal(t, int64(200000), sum.Total)
	assert.Equal(t, 70, f.points(t, "lan@example.com"))

	sum, err = f.engine.RemoveReward(ctx, sess, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(220000), sum.Total)
	assert.Equal(t, 120, f.points(t, "lan@example.com"))
	assert.Equal(t, 120, sess.Ledger().Balance())
}

func TestEngine_RedeemInsufficientPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signedIn(t, 60)
	_, err := f.engine.AddQuickItem(ctx, sess, 1, 1)
	require.NoError(t, err)

	_, err = f.engine.RedeemReward(ctx, sess, 1)
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Equal(t, 60, sess.Ledger().Balance())
	assert.Equal(t, 60, f.points(t, "lan@example.com"))
}

func TestEngine_RedeemRollsBackWhenStoreFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signedIn(t, 100)
	_, err := f.engine.AddQuickItem(ctx, sess, 1, 1)
	require.NoError(t, err)

	f.store.fail(storage.CollectionUsers)
	_, err = f.engine.RedeemReward(ctx, sess, 3)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 100, sess.Ledger().Balance())
	_, applied := sess.Ledger().Applied()
	assert.False(t, applied)
}

func TestEngine_TwoSessionsCannotSpendSamePoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.signedIn(t, 100)
	second := NewSession("s-2")
	_, err := f.engine.SignIn(ctx, second, "lan@example.com", DurabilityTab)
	require.NoError(t, err)

	for _, sess := range []*Session{first, second} {
		_, err = f.engine.AddQuickItem(ctx, sess, 1, 1)
		require.NoError(t, err)
	}

	_, err = f.engine.RedeemReward(ctx, first, 1)
	require.NoError(t, err)
	_, err = f.engine.RedeemReward(ctx, second, 1)
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Equal(t, 0, second.Ledger().Balance())
	_, applied := second.Ledger().Applied()
	assert.False(t, applied)
	assert.Equal(t, 0, f.points(t, "lan@example.com"))

	// the second session sees the credit from the first checkout
	o, err := f.engine.Checkout(ctx, first, Payment{Method: PaymentCash})
	require.NoError(t, err)
	o2, err := f.engine.Checkout(ctx, second, Payment{Method: PaymentCash})
	require.NoError(t, err)
	assert.Equal(t, o.PointsEarned+o2.PointsEarned, f.points(t, "lan@example.com"))
	assert.Equal(t, o.PointsEarned+o2.PointsEarned, second.Ledger().Balance())
}

func TestEngine_RemoveRewardRefundsOntoStoredBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signedIn(t, 120)
	_, err := f.engine.AddQuickItem(ctx, sess, 1, 1)
	require.NoError(t, err)
	_, err = f.engine.RedeemReward(ctx, sess, 3)
	require.NoError(t, err)

	// another session of the same customer earned points meanwhile
	f.setPoints(t, "lan@example.com", 90)

	_, err = f.engine.RemoveReward(ctx, sess, 3)
	require.NoError(t, err)
	assert.Equal(t, 140, f.points(t, "lan@example.com"))
	assert.Equal(t, 140, sess.Ledger().Balance())
}

func TestRepo_UpdatePointsRejectsOverdraftAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signedIn(t, 30)

	_, err := f.repo.UpdatePoints(ctx, "LAN@example.com", func(stored int) (int, error) { return stored - 40, nil })
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Equal(t, 30, f.points(t, "lan@example.com"))

	got, err := f.repo.UpdatePoints(ctx, "lan@example.com", func(stored int) (int, error) { return stored + 5, nil })
	require.NoError(t, err)
	assert.Equal(t, 35, got)

	_, err = f.repo.UpdatePoints(ctx, "nobody@example.com", func(int) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_OrderHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	guest := NewSession("g")
	_, err := f.engine.AddQuickItem(ctx, guest, 2, 1)
	require.NoError(t, err)
	_, err = f.engine.Checkout(ctx, guest, Payment{Method: PaymentCash})
	require.NoError(t, err)
	_, err = f.engine.OrderHistory(ctx, guest)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	sess := f.signedIn(t, 0)
	history, err := f.engine.OrderHistory(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, history)

	for i := 0; i < 2; i++ {
		_, err = f.engine.AddQuickItem(ctx, sess, 1, 1)
		require.NoError(t, err)
		_, err = f.engine.Checkout(ctx, sess, Payment{Method: PaymentCash})
		require.NoError(t, err)
	}

	history, err = f.engine.OrderHistory(ctx, sess)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "ORD-002", history[0].ID)
	assert.Equal(t, "ORD-003", history[1].ID)
	assert.Equal(t, StatusCompleted, history[0].Status)
}

func TestEngine_CheckoutAfterCustomerDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signedIn(t, 10)
	_, err := f.engine.AddQuickItem(ctx, sess, 2, 1)
	require.NoError(t, err)

	require.NoError(t, f.repo.UpdateCustomers(ctx, func([]Customer) ([]Customer, error) {
		return []Customer{}, nil
	}))

	o, err := f.engine.Checkout(ctx, sess, Payment{Method: PaymentCash})
	require.NoError(t, err)
	assert.Equal(t, "lan@example.com", o.CustomerEmail)
	assert.True(t, sess.Cart.IsEmpty())
	assert.Equal(t, 10, sess.Ledger().Balance())
}

func TestEngine_CheckoutEmptyCartChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signedIn(t, 30)

	_, err := f.engine.Checkout(ctx, sess, Payment{Method: PaymentCash})
	assert.ErrorIs(t, err, ErrEmptyCart)

	orders, err := f.repo.Orders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	userOrders, err := f.repo.UserOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, userOrders)
	assert.Equal(t, 30, f.points(t, "lan@example.com"))
	assert.Equal(t, 30, sess.Ledger().Balance())
}

func TestEngine_CheckoutCardNeedsDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := NewSession("g")
	_, err := f.engine.AddQuickItem(ctx, sess, 2, 1)
	require.NoError(t, err)

	_, err = f.engine.Checkout(ctx, sess, Payment{Method: PaymentCard, Card: CardDetails{Number: "4111 1111", Expiry: "12/28", CVV: " "}})
	assert.ErrorIs(t, err, ErrMissingPaymentDetails)
	_, err = f.engine.Checkout(ctx, sess, Payment{Method: "bitcoin"})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	assert.Equal(t, 1, sess.Cart.Len())
}

func TestEngine_CheckoutSignedIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signedIn(t, 10)

	_, err := f.engine.AddCustomizedItem(ctx, sess, 1, 2, Customization{Size: SizeMedium, Milk: MilkRegular})
	require.NoError(t, err)

	o, err := f.engine.Checkout(ctx, sess, Payment{Method: PaymentCard, Card: CardDetails{Number: "4111", Expiry: "01/30", CVV: "123"}})
	require.NoError(t, err)

	assert.Equal(t, "ORD-001", o.ID)
	assert.Equal(t, int64(220000), o.Total)
	assert.Equal(t, 8, o.PointsEarned)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "lan@example.com", o.CustomerEmail)
	assert.Equal(t, fixedNow, o.CreatedAt)

	assert.True(t, sess.Cart.IsEmpty())
	assert.Equal(t, 18, sess.Ledger().Balance())
	assert.Equal(t, 18, f.points(t, "lan@example.com"))

	admin, err := f.repo.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, admin, 1)
	assert.Equal(t, StatusPending, admin[0].Status)

	user, err := f.repo.UserOrders(ctx)
	require.NoError(t, err)
	require.Len(t, user, 1)
	assert.Equal(t, StatusCompleted, user[0].Status)
	assert.Equal(t, o.ID, user[0].ID)

	assert.Contains(t, f.events.types(), EventOrderPlaced)
}

func TestEngine_CheckoutConsumesRewardKeepsBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signedIn(t, 120)

	_, err := f.engine.AddCustomizedItem(ctx, sess, 1, 2, Customization{Size: SizeMedium, Milk: MilkRegular})
	require.NoError(t, err)
	_, err = f.engine.RedeemReward(ctx, sess, 3)
	require.NoError(t, err)

	o, err := f.engine.Checkout(ctx, sess, Payment{Method: PaymentCash})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), o.Discount)
	assert.Equal(t, int64(200000), o.Total)
	assert.Equal(t, 3, o.RewardID)

	// 120 - 50 spent + 8 earned
	assert.Equal(t, 78, sess.Ledger().Balance())
	_, applied := sess.Ledger().Applied()
	assert.False(t, applied)
}

func TestEngine_CheckoutGuestEarnsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := NewSession("g")
	_, err := f.engine.AddQuickItem(ctx, sess, 12, 2)
	require.NoError(t, err)

	o, err := f.engine.Checkout(ctx, sess, Payment{Method: PaymentEWallet})
	require.NoError(t, err)
	assert.Equal(t, GuestName, o.CustomerName)
	assert.Equal(t, GuestEmail, o.CustomerEmail)
	assert.Equal(t, 0, o.PointsEarned)
}

func TestEngine_CheckoutSnapshotsLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := NewSession("g")
	_, err := f.engine.AddCustomizedItem(ctx, sess, 3, 1, Customization{Notes: "no foam"})
	require.NoError(t, err)

	o, err := f.engine.Checkout(ctx, sess, Payment{Method: PaymentCash})
	require.NoError(t, err)
	o.Lines[0].Customization.Notes = "mutated"

	stored, err := f.repo.Orders(ctx)
	require.NoError(t, err)
	assert.Equal(t, "no foam", stored[0].Lines[0].Customization.Notes)
}

func TestEngine_CheckoutRollsBackOnStoreFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signedIn(t, 5)
	_, err := f.engine.AddQuickItem(ctx, sess, 12, 2)
	require.NoError(t, err)

	f.store.fail(storage.CollectionUserOrders)
	_, err = f.engine.Checkout(ctx, sess, Payment{Method: PaymentCash})
	assert.ErrorIs(t, err, errStoreDown)

	assert.Equal(t, 1, sess.Cart.Len())
	assert.Equal(t, 5, sess.Ledger().Balance())
	assert.Equal(t, 5, f.points(t, "lan@example.com"))
	orders, err := f.repo.Orders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestEngine_SignOutRefundsAppliedReward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signedIn(t, 100)
	_, err := f.engine.AddQuickItem(ctx, sess, 1, 1)
	require.NoError(t, err)
	_, err = f.engine.RedeemReward(ctx, sess, 2)
	require.NoError(t, err)
	assert.Equal(t, 25, f.points(t, "lan@example.com"))

	require.NoError(t, f.engine.SignOut(ctx, sess))
	assert.False(t, sess.SignedIn())
	assert.True(t, sess.Cart.IsEmpty())
	assert.Equal(t, 100, f.points(t, "lan@example.com"))

	restored, err := f.engine.Restore(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, restored.SignedIn())
}
