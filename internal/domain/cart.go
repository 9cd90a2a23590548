package domain

import "github.com/shopspring/decimal"

// CartLine is one entry in a cart. Adding the same product twice yields two lines.
type CartLine struct {
	Product Product `json:"product"`
}

// Cart is an ordered list of lines. Insertion order is display order.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// Add appends a line for p.
func (c *Cart) Add(p Product) {
	c.Lines = append(c.Lines, CartLine{Product: p})
}

// Remove drops every line whose product id equals productID and returns how
// many were dropped. Removing an id that is not in the cart is a no-op.
func (c *Cart) Remove(productID string) int {
	kept := c.Lines[:0]
	removed := 0
	for _, l := range c.Lines {
		if l.Product.ID == productID {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	// Zero the tail so dropped products are not retained by the backing array.
	for i := len(kept); i < len(c.Lines); i++ {
		c.Lines[i] = CartLine{}
	}
	c.Lines = kept
	return removed
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.Lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ProductIDs returns the product id of each line in order.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, len(c.Lines))
	for i, l := range c.Lines {
		ids[i] = l.Product.ID
	}
	return ids
}

// Snapshot returns a copy of the lines that is safe to hand to other goroutines.
func (c *Cart) Snapshot() []CartLine {
	out := make([]CartLine, len(c.Lines))
	copy(out, c.Lines)
	return out
}

// BaseTotal is the exact sum of line prices in base currency.
func (c *Cart) BaseTotal() decimal.Decimal {
	return decimal.Sum(decimal.Zero, c.basePrices()...)
}

// Total projects the cart into the display currency of lang.
func (c *Cart) Total(lang Language) (Projection, error) {
	return ProjectSum(c.basePrices(), lang)
}

func (c *Cart) basePrices() []decimal.Decimal {
	prices := make([]decimal.Decimal, len(c.Lines))
	for i, l := range c.Lines {
		prices[i] = l.Product.Price
	}
	return prices
}
