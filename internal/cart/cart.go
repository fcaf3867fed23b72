// Package cart accumulates line items for a single checkout session.
//
// A Cart performs no I/O and no stock validation: the quantity requested on
// add is trusted, and availability is checked again when the cart is
// committed.
package cart

import (
	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
)

// Line is a requested quantity of a drug. Drug is the snapshot taken when the
// line was first added and is never replaced.
type Line struct {
	Drug     domain.Drug     `json:"drug"`
	Quantity int64           `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Cart is keyed by drug id. It is not safe for concurrent use.
type Cart struct {
	lines map[string]*Line
	order []string
}

func New() *Cart {
	return &Cart{lines: make(map[string]*Line)}
}

// Add inserts a line or increments an existing one. The caller must ensure quantity >= 1.
//
// Incrementing prices the whole line at item.Price, the snapshot passed now,
// while the line keeps its first snapshot. After a price change the subtotal
// therefore need not equal Quantity * Drug.Price until UpdateQuantity
// recomputes it from the stored snapshot.
func (c *Cart) Add(item domain.Drug, quantity int64) {
	if line, ok := c.lines[item.ID]; ok {
		line.Quantity += quantity
		line.Subtotal = item.Price.Mul(decimal.NewFromInt(line.Quantity))
		return
	}
	c.lines[item.ID] = &Line{
		Drug:     item,
		Quantity: quantity,
		Subtotal: item.Price.Mul(decimal.NewFromInt(quantity)),
	}
	c.order = append(c.order, item.ID)
}

// UpdateQuantity sets the quantity of a line using its captured price.
// A quantity of zero or less removes the line. Unknown ids are ignored.
func (c *Cart) UpdateQuantity(drugID string, quantity int64) {
	if quantity <= 0 {
		c.Remove(drugID)
		return
	}
	line, ok := c.lines[drugID]
	if !ok {
		return
	}
	line.Quantity = quantity
	line.Subtotal = line.Drug.Price.Mul(decimal.NewFromInt(quantity))
}

func (c *Cart) Remove(drugID string) {
	if _, ok := c.lines[drugID]; !ok {
		return
	}
	delete(c.lines, drugID)
	for i, id := range c.order {
		if id == drugID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Cart) Line(drugID string) (Line, bool) {
	line, ok := c.lines[drugID]
	if !ok {
		return Line{}, false
	}
	return *line, true
}

// Lines returns a copy of the lines in the order they were first added.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal)
	}
	return total
}

func (c *Cart) ItemCount() int64 {
	var n int64
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) Clear() {
	c.lines = make(map[string]*Line)
	c.order = nil
}
