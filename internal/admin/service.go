// Package admin backs the dashboard: order status cycling, deletions,
// statistics and the editable copy of the menu.
package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-coffee-orders/internal/shop"
	"go.uber.org/zap"
)

type Service struct {
	repo *shop.Repo
	menu *Menu
	bus  *shop.Bus
	log  *zap.Logger
}

// NewService starts the menu from a copy of catalog; edits never reach
// the storefront catalog.
func NewService(repo *shop.Repo, catalog *shop.Catalog, bus *shop.Bus, log *zap.Logger) *Service {
	return &Service{
		repo: repo,
		menu: NewMenu(catalog.Items()),
		bus:  bus,
		log:  log,
	}
}

func (s *Service) Menu() *Menu { return s.menu }

// AdvanceStatus moves an order one step along the status cycle.
func (s *Service) AdvanceStatus(ctx context.Context, orderID string) (shop.Order, error) {
	var (
		updated shop.Order
		from    shop.Status
	)
	err := s.repo.UpdateOrders(ctx, func(orders []shop.Order) ([]shop.Order, error) {
		for i := range orders {
			if orders[i].ID != orderID {
				continue
			}
			from = orders[i].Status
			orders[i].Status = shop.NextStatus(from)
			updated = orders[i]
			return orders, nil
		}
		return nil, fmt.Errorf("order %s: %w", orderID, shop.ErrNotFound)
	})
	if err != nil {
		return shop.Order{}, err
	}
	s.log.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)))
	ev := updated
	s.bus.Publish(ctx, shop.Event{Type: shop.EventOrderStatusChanged, Order: &ev, PreviousStatus: from})
	return updated, nil
}

// DeleteOrder removes an order; unknown ids are ignored.
func (s *Service) DeleteOrder(ctx context.Context, orderID string) error {
	removed := false
	err := s.repo.UpdateOrders(ctx, func(orders []shop.Order) ([]shop.Order, error) {
		out := orders[:0]
		for _, o := range orders {
			if o.ID == orderID {
				removed = true
				continue
			}
			out = append(out, o)
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	if removed {
		s.log.Info("order deleted", zap.String("order_id", orderID))
		s.bus.Publish(ctx, shop.Event{Type: shop.EventOrderDeleted, Key: orderID})
	}
	return nil
}

// DeleteCustomer removes a customer record; unknown emails are ignored.
// Their orders stay in the order list.
func (s *Service) DeleteCustomer(ctx context.Context, email string) error {
	removed := false
	err := s.repo.UpdateCustomers(ctx, func(users []shop.Customer) ([]shop.Customer, error) {
		out := users[:0]
		for _, u := range users {
			if strings.EqualFold(u.Email, email) {
				removed = true
				continue
			}
			out = append(out, u)
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	if removed {
		s.log.Info("customer deleted", zap.String("email", email))
		s.bus.Publish(ctx, shop.Event{Type: shop.EventCustomerDeleted, Key: email})
	}
	return nil
}

func (s *Service) Order(ctx context.Context, orderID string) (shop.Order, error) {
	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return shop.Order{}, err
	}
	for _, o := range orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return shop.Order{}, fmt.Errorf("order %s: %w", orderID, shop.ErrNotFound)
}

// FilterOrders returns orders with the given status, or every order for
// shop.FilterAll and the empty string. Other unknown statuses are rejected
// with shop.ErrInvalidStatus.
func (s *Service) FilterOrders(ctx context.Context, status string) ([]shop.Order, error) {
	all := status == "" || status == shop.FilterAll
	if !all && !shop.Status(status).Valid() {
		return nil, fmt.Errorf("filter %q: %w", status, shop.ErrInvalidStatus)
	}
	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return nil, err
	}
	if all {
		return orders, nil
	}
	out := []shop.Order{}
	for _, o := range orders {
		if string(o.Status) == status {
			out = append(out, o)
		}
	}
	return out, nil
}

// DeleteMenuItem removes an item from the dashboard menu; unknown ids
// are ignored.
func (s *Service) DeleteMenuItem(ctx context.Context, id int) {
	if s.menu.Delete(id) {
		s.bus.Publish(ctx, shop.Event{Type: shop.EventMenuChanged, Key: fmt.Sprint(id)})
	}
}

func (s *Service) AddMenuItem(ctx context.Context, in NewItem) (shop.CatalogItem, error) {
	it, err := s.menu.Add(in)
	if err != nil {
		return shop.CatalogItem{}, err
	}
	s.bus.Publish(ctx, shop.Event{Type: shop.EventMenuChanged, Key: fmt.Sprint(it.ID)})
	return it, nil
}

func (s *Service) EditMenuItemPrice(ctx context.Context, id int, price int64) (shop.CatalogItem, error) {
	it, err := s.menu.EditPrice(id, price)
	if err != nil {
		return shop.CatalogItem{}, err
	}
	s.bus.Publish(ctx, shop.Event{Type: shop.EventMenuChanged, Key: fmt.Sprint(id)})
	return it, nil
}
