package admin

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ariefcatur/go-coffee-orders/internal/shop"
)

type Stats struct {
	Revenue       int64 `json:"totalRevenue"`
	Orders        int   `json:"totalOrders"`
	PendingOrders int   `json:"pendingOrders"`
	Customers     int   `json:"totalCustomers"`
}

type ItemSales struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Revenue int64  `json:"revenue"`
}

type CustomerSummary struct {
	shop.Customer
	Orders     int   `json:"orders"`
	TotalSpent int64 `json:"totalSpent"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return Stats{}, err
	}
	users, err := s.repo.Customers(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Orders: len(orders), Customers: len(users)}
	for _, o := range orders {
		st.Revenue += o.Total
		if o.Status == shop.StatusPending {
			st.PendingOrders++
		}
	}
	return st, nil
}

// RecentOrders returns the last n orders, newest first.
func (s *Service) RecentOrders(ctx context.Context, n int) ([]shop.Order, error) {
	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return nil, err
	}
	n = max(0, min(n, len(orders)))
	out := make([]shop.Order, 0, n)
	for i := len(orders) - 1; i >= len(orders)-n; i-- {
		out = append(out, orders[i])
	}
	return out, nil
}

// TopSelling ranks items by quantity sold; ties keep first-seen order.
func (s *Service) TopSelling(ctx context.Context, n int) ([]ItemSales, error) {
	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	var sales []ItemSales
	for _, o := range orders {
		for _, l := range o.Lines {
			i, ok := idx[l.Name]
			if !ok {
				i = len(sales)
				idx[l.Name] = i
				sales = append(sales, ItemSales{Name: l.Name})
			}
			sales[i].Count += l.Quantity
			sales[i].Revenue += l.LineTotal()
		}
	}
	sort.SliceStable(sales, func(a, b int) bool { return sales[a].Count > sales[b].Count })
	if n >= 0 && n < len(sales) {
		sales = sales[:n]
	}
	if sales == nil {
		sales = []ItemSales{}
	}
	return sales, nil
}

func (s *Service) Customers(ctx context.Context) ([]CustomerSummary, error) {
	users, err := s.repo.Customers(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CustomerSummary, 0, len(users))
	for _, u := range users {
		out = append(out, summarize(u, orders))
	}
	return out, nil
}

func (s *Service) Customer(ctx context.Context, email string) (CustomerSummary, error) {
	users, err := s.Customers(ctx)
	if err != nil {
		return CustomerSummary{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return CustomerSummary{}, fmt.Errorf("customer %s: %w", email, shop.ErrNotFound)
}

func summarize(u shop.Customer, orders []shop.Order) CustomerSummary {
	cs := CustomerSummary{Customer: u}
	for _, o := range orders {
		if strings.EqualFold(o.CustomerEmail, u.Email) {
			cs.Orders++
			cs.TotalSpent += o.Total
		}
	}
	return cs
}
