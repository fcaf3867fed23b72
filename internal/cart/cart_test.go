package cart_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/m/domain"
	"pharmapos/m/internal/cart"
)

func drug(id string, price int64, stock int64) domain.Drug {
	return domain.Drug{ID: id, Name: "drug " + id, Unit: "strip", Price: decimal.NewFromInt(price), StockQuantity: stock}
}

func recomputed(c *cart.Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines() {
		sum = sum.Add(l.Drug.Price.Mul(decimal.NewFromInt(l.Quantity)))
	}
	return sum
}

func TestAdd(t *testing.T) {
	t.Parallel()

	t.Run("new line", func(t *testing.T) {
		t.Parallel()
		c := cart.New()
		c.Add(drug("a", 10000, 5), 2)

		line, ok := c.Line("a")
		require.True(t, ok)
		assert.EqualValues(t, 2, line.Quantity)
		assert.True(t, decimal.NewFromInt(20000).Equal(line.Subtotal))
	})

	t.Run("existing line increments", func(t *testing.T) {
		t.Parallel()
		c := cart.New()
		c.Add(drug("a", 10000, 5), 2)
		c.Add(drug("a", 10000, 5), 3)

		assert.Equal(t, 1, c.Len())
		line, _ := c.Line("a")
		assert.EqualValues(t, 5, line.Quantity)
		assert.True(t, decimal.NewFromInt(50000).Equal(line.Subtotal))
	})

	t.Run("re-add after price change", func(t *testing.T) {
		t.Parallel()
		c := cart.New()
		c.Add(drug("a", 10000, 5), 1)
		c.Add(drug("a", 12000, 5), 1)

		line, _ := c.Line("a")
		assert.True(t, decimal.NewFromInt(10000).Equal(line.Drug.Price), "first snapshot kept")
		assert.True(t, decimal.NewFromInt(24000).Equal(line.Subtotal), "line repriced at the new price")
		assert.True(t, decimal.NewFromInt(24000).Equal(c.Total()))

		c.UpdateQuantity("a", 2)
		line, _ = c.Line("a")
		assert.True(t, decimal.NewFromInt(20000).Equal(line.Subtotal))
	})

		t.Run("does not check stock", func(t *testing.T) {
		t.Parallel()
		c := cart.New()
		c.Add(drug("a", 100, 1), 10)
		assert.EqualValues(t, 10, c.ItemCount())
	})
}

func TestUpdateQuantityUsesCapturedPrice(t *testing.T) {
	t.Parallel()

	c := cart.New()
	c.Add(drug("a", 1500, 10), 1)
	c.UpdateQuantity("a", 4)

	line, ok := c.Line("a")
	require.True(t, ok)
	assert.EqualValues(t, 4, line.Quantity)
	assert.True(t, decimal.NewFromInt(6000).Equal(line.Subtotal))
}

func TestUpdateQuantityZeroEqualsRemove(t *testing.T) {
	t.Parallel()

	updated := cart.New()
	removed := cart.New()
	for _, c := range []*cart.Cart{updated, removed} {
		c.Add(drug("a", 1000, 10), 1)
		c.Add(drug("b", 2000, 10), 2)
	}
	updated.UpdateQuantity("a", 0)
	removed.Remove("a")

	assert.Equal(t, removed.Lines(), updated.Lines())
	assert.True(t, removed.Total().Equal(updated.Total()))

	updated.UpdateQuantity("b", -3)
	assert.Equal(t, 0, updated.Len())
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	t.Parallel()

	c := cart.New()
	c.Add(drug("a", 1000, 10), 1)
	c.Remove("missing")
	c.UpdateQuantity("missing", 3)
	assert.Equal(t, 1, c.Len())
}

func TestTotalMatchesLinesThroughEdits(t *testing.T) {
	t.Parallel()

	c := cart.New()
	steps := []func(){
		func() { c.Add(drug("a", 10000, 5), 2) },
		func() { c.Add(drug("b", 5000, 5), 1) },
		func() { c.Add(drug("a", 10000, 5), 1) },
		func() { c.UpdateQuantity("b", 7) },
		func() { c.Add(drug("c", 1250, 9), 3) },
		func() { c.Remove("a") },
		func() { c.UpdateQuantity("c", 0) },
		func() { c.Add(drug("a", 10000, 5), 1) },
	}
	for i, step := range steps {
		step()
		assert.Truef(t, recomputed(c).Equal(c.Total()), "step %d: total %s", i, c.Total())
	}
	assert.EqualValues(t, 8, c.ItemCount())
}

func TestLinesKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	c := cart.New()
	c.Add(drug("b", 1, 1), 1)
	c.Add(drug("a", 1, 1), 1)
	c.Add(drug("c", 1, 1), 1)
	c.Remove("a")
	c.Add(drug("a", 1, 1), 1)

	var ids []string
	for _, l := range c.Lines() {
		ids = append(ids, l.Drug.ID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Total().IsZero())
}

func TestSessions(t *testing.T) {
	t.Parallel()

	s := cart.NewSessions()
	first := s.Get("cashier-1")
	assert.Same(t, first, s.Get("cashier-1"))
	assert.NotSame(t, first, s.Get("cashier-2"))
	assert.Equal(t, domain.PaymentCash, first.PaymentMethod)

	first.Cart.Add(drug("a", 100, 3), 1)
	first.CustomerName = "Budi"
	first.PaymentMethod = domain.PaymentDebit
	first.Reset()

	assert.Equal(t, 0, first.Cart.Len())
	assert.Empty(t, first.CustomerName)
	assert.Equal(t, domain.PaymentCash, first.PaymentMethod)

	s.Drop("cashier-1")
	assert.NotSame(t, first, s.Get("cashier-1"))
}
