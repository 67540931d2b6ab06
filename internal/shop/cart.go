package shop

import "fmt"

// CartLine snapshots the catalog item so later menu edits do not reprice
// what is already in the cart.
type CartLine struct {
	ItemID        int            `json:"id"`
	Name          string         `json:"name"`
	BasePrice     int64          `json:"price"`
	Category      Category       `json:"category"`
	Quantity      int            `json:"quantity"`
	Customization *Customization `json:"customizations,omitempty"`
	UnitPrice     int64          `json:"unitPrice"`
}

func (l CartLine) LineTotal() int64 { return l.UnitPrice * int64(l.Quantity) }

func (l CartLine) clone() CartLine {
	if l.Customization != nil {
		cz := *l.Customization
		l.Customization = &cz
	}
	return l
}

func cloneLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	for i, l := range lines {
		out[i] = l.clone()
	}
	return out
}

// PriceLine builds a priced line for item without adding it anywhere.
// A nil customization prices the item at its base price.
func PriceLine(item CatalogItem, qty int, cz *Customization) (CartLine, error) {
	if qty < 1 {
		return CartLine{}, fmt.Errorf("quantity %d: %w", qty, ErrInvalidQuantity)
	}
	line := CartLine{
		ItemID:    item.ID,
		Name:      item.Name,
		BasePrice: item.BasePrice,
		Category:  item.Category,
		Quantity:  qty,
		UnitPrice: item.BasePrice,
	}
	if cz != nil {
		n := cz.normalize(item.Category)
		if err := n.validate(); err != nil {
			return CartLine{}, err
		}
		line.Customization = &n
		line.UnitPrice += n.Surcharge()
	}
	return line, nil
}

// Cart is an ordered list of lines. The zero value is an empty cart.
type Cart struct {
	lines []CartLine
}

func (c *Cart) Lines() []CartLine { return cloneLines(c.lines) }

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// ItemCount is the number of drinks across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// AddQuickItem adds qty of an item at base price, merging into an existing
// uncustomized line for the same item.
func (c *Cart) AddQuickItem(catalog *Catalog, itemID, qty int) error {
	item, err := catalog.Item(itemID)
	if err != nil {
		return err
	}
	line, err := PriceLine(item, qty, nil)
	if err != nil {
		return err
	}
	for i := range c.lines {
		if c.lines[i].ItemID == itemID && c.lines[i].Customization == nil {
			c.lines[i].Quantity += qty
			return nil
		}
	}
	c.lines = append(c.lines, line)
	return nil
}

// AddCustomizedItem always appends a new line, even when an identical
// customization is already in the cart.
func (c *Cart) AddCustomizedItem(catalog *Catalog, itemID, qty int, cz Customization) error {
	item, err := catalog.Item(itemID)
	if err != nil {
		return err
	}
	line, err := PriceLine(item, qty, &cz)
	if err != nil {
		return err
	}
	c.lines = append(c.lines, line)
	return nil
}

// UpdateQuantity adds delta to a line and drops it when it reaches zero.
// It reports whether the cart changed.
func (c *Cart) UpdateQuantity(index, delta int) bool {
	if index < 0 || index >= len(c.lines) {
		return false
	}
	q := c.lines[index].Quantity + delta
	if q <= 0 {
		return c.RemoveLine(index)
	}
	c.lines[index].Quantity = q
	return delta != 0
}

func (c *Cart) RemoveLine(index int) bool {
	if index < 0 || index >= len(c.lines) {
		return false
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return true
}

func (c *Cart) Clear() { c.lines = nil }
