package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ariefcatur/go-coffee-orders/internal/storage"
)

// Repo maps shop records onto a storage.Store. Each list lives under
// storage.KeyAll of its collection and is rewritten whole.
//
// The mutex serializes read-modify-write cycles within one process only;
// two processes sharing a store can still overwrite each other's writes.
type Repo struct {
	store storage.Store
	mu    sync.Mutex
}

func NewRepo(s storage.Store) *Repo { return &Repo{store: s} }

type sessionRecord struct {
	Customer
	Durability Durability `json:"durability"`
}

func loadList[T any](ctx context.Context, s storage.Store, collection string) ([]T, error) {
	b, err := s.Get(ctx, collection, storage.KeyAll)
	if errors.Is(err, storage.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	var out []T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func saveList[T any](ctx context.Context, s storage.Store, collection string, list []T) error {
	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	if err := s.Set(ctx, collection, storage.KeyAll, b); err != nil {
		return fmt.Errorf("save %s: %w", collection, err)
	}
	return nil
}

func (r *Repo) Orders(ctx context.Context) ([]Order, error) {
	return loadList[Order](ctx, r.store, storage.CollectionOrders)
}

func (r *Repo) UserOrders(ctx context.Context) ([]Order, error) {
	return loadList[Order](ctx, r.store, storage.CollectionUserOrders)
}

func (r *Repo) Customers(ctx context.Context) ([]Customer, error) {
	return loadList[Customer](ctx, r.store, storage.CollectionUsers)
}

func (r *Repo) Customer(ctx context.Context, email string) (Customer, error) {
	users, err := r.Customers(ctx)
	if err != nil {
		return Customer{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return Customer{}, fmt.Errorf("customer %s: %w", email, ErrNotFound)
}

// UpdateOrders rewrites the admin order list with fn's result. Returning
// an error from fn aborts without writing.
func (r *Repo) UpdateOrders(ctx context.Context, fn func([]Order) ([]Order, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders, err := r.Orders(ctx)
	if err != nil {
		return err
	}
	next, err := fn(orders)
	if err != nil {
		return err
	}
	return saveList(ctx, r.store, storage.CollectionOrders, next)
}

func (r *Repo) UpdateCustomers(ctx context.Context, fn func([]Customer) ([]Customer, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.Customers(ctx)
	if err != nil {
		return err
	}
	next, err := fn(users)
	if err != nil {
		return err
	}
	return saveList(ctx, r.store, storage.CollectionUsers, next)
}

func (r *Repo) AddCustomer(ctx context.Context, c Customer) error {
	return r.UpdateCustomers(ctx, func(users []Customer) ([]Customer, error) {
		for _, u := range users {
			if strings.EqualFold(u.Email, c.Email) {
				return nil, fmt.Errorf("customer %s: %w", c.Email, ErrAlreadyRegistered)
			}
		}
		return append(users, c), nil
	})
}

// UpdatePoints rewrites a customer's balance under the repo lock. fn
// receives the stored balance and returns the new one; a negative result
// is rejected with ErrInsufficientPoints and nothing is written.
func (r *Repo) UpdatePoints(ctx context.Context, email string, fn func(stored int) (int, error)) (int, error) {
	var balance int
	err := r.UpdateCustomers(ctx, func(users []Customer) ([]Customer, error) {
		for i := range users {
			if !strings.EqualFold(users[i].Email, email) {
				continue
			}
			next, err := fn(users[i].Points)
			if err != nil {
				return nil, err
			}
			if next < 0 {
				return nil, fmt.Errorf("customer %s: %w", email, ErrInsufficientPoints)
			}
			users[i].Points = next
			balance = next
			return users, nil
		}
		return nil, fmt.Errorf("customer %s: %w", email, ErrNotFound)
	})
	return balance, err
}

// AppendOrder writes the admin copy and the customer copy of a new order.
// If the customer copy cannot be written the admin list is restored.
func (r *Repo) AppendOrder(ctx context.Context, admin, customer Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.Orders(ctx)
	if err != nil {
		return err
	}
	userOrders, err := r.UserOrders(ctx)
	if err != nil {
		return err
	}
	if err := saveList(ctx, r.store, storage.CollectionOrders, append(orders, admin)); err != nil {
		return err
	}
	if err := saveList(ctx, r.store, storage.CollectionUserOrders, append(userOrders, customer)); err != nil {
		if rbErr := saveList(ctx, r.store, storage.CollectionOrders, orders); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	return nil
}

func sessionCollection(d Durability) string {
	if d == DurabilityTab {
		return storage.CollectionSessionTab
	}
	return storage.CollectionSessionLocal
}

func (r *Repo) saveSession(ctx context.Context, id string, rec sessionRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.store.Set(ctx, sessionCollection(rec.Durability), id, b); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// loadSession looks in the persistent collection first, then the tab one.
func (r *Repo) loadSession(ctx context.Context, id string) (sessionRecord, error) {
	for _, col := range []string{storage.CollectionSessionLocal, storage.CollectionSessionTab} {
		b, err := r.store.Get(ctx, col, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return sessionRecord{}, fmt.Errorf("load session: %w", err)
		}
		var rec sessionRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return sessionRecord{}, fmt.Errorf("decode session: %w", err)
		}
		return rec, nil
	}
	return sessionRecord{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
}

func (r *Repo) removeSession(ctx context.Context, id string) error {
	for _, col := range []string{storage.CollectionSessionLocal, storage.CollectionSessionTab} {
		if err := r.store.Remove(ctx, col, id); err != nil {
			return fmt.Errorf("remove session: %w", err)
		}
	}
	return nil
}
