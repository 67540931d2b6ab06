package shop

import (
	"fmt"
	"strings"
)

type Size string

const (
	SizeSmall  Size = "Small"
	SizeMedium Size = "Medium"
	SizeLarge  Size = "Large"
)

// MilkRegular is the default milk; any other choice is surcharged.
const MilkRegular = "Regular"

const (
	SurchargeMedium int64 = 12500
	SurchargeLarge  int64 = 25000
	SurchargeMilk   int64 = 12500
	SurchargeShot   int64 = 18750
)

// Customization changes the unit price of a cart line through size, milk
// and extra shots. Sugar, ice and notes are carried along unpriced.
type Customization struct {
	Size       Size   `json:"size"`
	Sugar      string `json:"sugar,omitempty"`
	Milk       string `json:"milk"`
	Ice        string `json:"ice,omitempty"`
	ExtraShots int    `json:"extraShots"`
	Notes      string `json:"notes,omitempty"`
}

func (c Customization) Surcharge() int64 {
	var s int64
	switch c.Size {
	case SizeMedium:
		s += SurchargeMedium
	case SizeLarge:
		s += SurchargeLarge
	}
	if c.Milk != MilkRegular {
		s += SurchargeMilk
	}
	return s + int64(c.ExtraShots)*SurchargeShot
}

// normalize fills defaults and drops ice for drinks that are not iced.
func (c Customization) normalize(cat Category) Customization {
	if c.Size == "" {
		c.Size = SizeSmall
	}
	if strings.TrimSpace(c.Milk) == "" {
		c.Milk = MilkRegular
	}
	if cat != CategoryIced {
		c.Ice = ""
	}
	c.Notes = strings.TrimSpace(c.Notes)
	return c
}

func (c Customization) validate() error {
	switch c.Size {
	case SizeSmall, SizeMedium, SizeLarge:
	default:
		return fmt.Errorf("size %q: %w", c.Size, ErrInvalidCustomization)
	}
	if c.ExtraShots < 0 {
		return fmt.Errorf("extra shots %d: %w", c.ExtraShots, ErrInvalidQuantity)
	}
	return nil
}
