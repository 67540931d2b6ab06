package shop

import "fmt"

type Category string

const (
	CategoryHot     Category = "hot"
	CategoryIced    Category = "iced"
	CategorySpecial Category = "special"
)

// FilterAll selects every category in Catalog.Filter.
const FilterAll = "all"

func (c Category) Valid() bool {
	switch c {
	case CategoryHot, CategoryIced, CategorySpecial:
		return true
	}
	return false
}

// CatalogItem prices are whole VND.
type CatalogItem struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	BasePrice   int64    `json:"price"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
}

var defaultMenu = []CatalogItem{
	{ID: 1, Name: "Espresso", BasePrice: 87500, Category: CategoryHot, Description: "Rich and bold espresso shot"},
	{ID: 2, Name: "Cappuccino", BasePrice: 112500, Category: CategoryHot, Description: "Espresso with steamed milk foam"},
	{ID: 3, Name: "Latte", BasePrice: 118750, Category: CategoryHot, Description: "Smooth espresso with steamed milk"},
	{ID: 4, Name: "Americano", BasePrice: 93750, Category: CategoryHot, Description: "Espresso with hot water"},
	{ID: 5, Name: "Iced Coffee", BasePrice: 100000, Category: CategoryIced, Description: "Cold brewed coffee over ice"},
	{ID: 6, Name: "Iced Latte", BasePrice: 125000, Category: CategoryIced, Description: "Cold espresso with milk and ice"},
	{ID: 7, Name: "Cold Brew", BasePrice: 112500, Category: CategoryIced, Description: "Smooth cold brewed coffee"},
	{ID: 8, Name: "Frappe", BasePrice: 137500, Category: CategoryIced, Description: "Blended iced coffee drink"},
	{ID: 9, Name: "Caramel Macchiato", BasePrice: 143750, Category: CategorySpecial, Description: "Vanilla and caramel latte"},
	{ID: 10, Name: "Mocha", BasePrice: 131250, Category: CategorySpecial, Description: "Chocolate and espresso blend"},
	{ID: 11, Name: "Vanilla Latte", BasePrice: 125000, Category: CategorySpecial, Description: "Latte with vanilla syrup"},
	{ID: 12, Name: "Pumpkin Spice", BasePrice: 150000, Category: CategorySpecial, Description: "Seasonal pumpkin spice latte"},
}

// DefaultMenu returns a fresh copy of the storefront menu.
func DefaultMenu() []CatalogItem {
	out := make([]CatalogItem, len(defaultMenu))
	copy(out, defaultMenu)
	return out
}

// Catalog is read-only once built.
type Catalog struct {
	items []CatalogItem
	byID  map[int]int
}

func NewCatalog(items []CatalogItem) *Catalog {
	c := &Catalog{
		items: make([]CatalogItem, len(items)),
		byID:  make(map[int]int, len(items)),
	}
	copy(c.items, items)
	for i, it := range c.items {
		c.byID[it.ID] = i
	}
	return c
}

func DefaultCatalog() *Catalog { return NewCatalog(defaultMenu) }

func (c *Catalog) Item(id int) (CatalogItem, error) {
	i, ok := c.byID[id]
	if !ok {
		return CatalogItem{}, fmt.Errorf("menu item %d: %w", id, ErrNotFound)
	}
	return c.items[i], nil
}

func (c *Catalog) Items() []CatalogItem {
	out := make([]CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

// Filter returns the items of one category, or all items for FilterAll
// and the empty string.
func (c *Catalog) Filter(category string) []CatalogItem {
	if category == "" || category == FilterAll {
		return c.Items()
	}
	out := []CatalogItem{}
	for _, it := range c.items {
		if string(it.Category) == category {
			out = append(out, it)
		}
	}
	return out
}
