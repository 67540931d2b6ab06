package admin

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ariefcatur/go-coffee-orders/internal/shop"
)

// Menu is the dashboard's in-memory copy of the catalog.
type Menu struct {
	mu    sync.RWMutex
	items []shop.CatalogItem
}

type NewItem struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       int64         `json:"price"`
	Category    shop.Category `json:"category"`
}

func NewMenu(items []shop.CatalogItem) *Menu {
	m := &Menu{items: make([]shop.CatalogItem, len(items))}
	copy(m.items, items)
	return m
}

func (m *Menu) Items() []shop.CatalogItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]shop.CatalogItem, len(m.items))
	copy(out, m.items)
	return out
}

// Add appends an item with the next free id.
func (m *Menu) Add(in NewItem) (shop.CatalogItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Price < 0 || !in.Category.Valid() {
		return shop.CatalogItem{}, shop.ErrInvalidMenuItem
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next := 1
	for _, it := range m.items {
		if it.ID >= next {
			next = it.ID + 1
		}
	}
	it := shop.CatalogItem{
		ID:          next,
		Name:        name,
		BasePrice:   in.Price,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
	}
	m.items = append(m.items, it)
	return it, nil
}

func (m *Menu) EditPrice(id int, price int64) (shop.CatalogItem, error) {
	if price < 0 {
		return shop.CatalogItem{}, shop.ErrInvalidMenuItem
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].BasePrice = price
			return m.items[i], nil
		}
	}
	return shop.CatalogItem{}, fmt.Errorf("menu item %d: %w", id, shop.ErrNotFound)
}

// Delete reports whether an item was removed.
func (m *Menu) Delete(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true
		}
	}
	return false
}
