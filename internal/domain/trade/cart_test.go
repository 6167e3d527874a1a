package trade

import (
	"errors"
	"testing"

	"github.com/mercearia/pdv/internal/domain/catalog"
	"github.com/mercearia/pdv/internal/domain/shared"
	"github.com/mercearia/pdv/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discreteProduct(id string, price float64, stock int64) catalog.ProductSnapshot {
	return catalog.ProductSnapshot{
		ID:             id,
		Name:           "Produto " + id,
		UnitPrice:      valueobject.NewMoneyBRLFromFloat(price),
		Unit:           catalog.UnitDiscrete,
		AvailableStock: decimal.NewFromInt(stock),
	}
}

func weightProduct(id string, price float64, stock string) catalog.ProductSnapshot {
	return catalog.ProductSnapshot{
		ID:             id,
		Name:           "Granel " + id,
		UnitPrice:      valueobject.NewMoneyBRLFromFloat(price),
		Unit:           catalog.UnitContinuous,
		AvailableStock: decimal.RequireFromString(stock),
	}
}

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCart_Add(t *testing.T) {
	t.Run("appends new line and recomputes total", func(t *testing.T) {
		cart := NewCart()
		idx, err := cart.Add(discreteProduct("1", 2.50, 10), qty("3"))
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
		assert.Equal(t, 1, cart.Len())
		assert.Equal(t, "7.50", cart.Total().StringFixed(2))
	})

	t.Run("merges re-added product into existing line", func(t *testing.T) {
		cart := NewCart()
		p := discreteProduct("1", 1.00, 10)
		_, err := cart.Add(p, qty("2"))
		require.NoError(t, err)
		idx, err := cart.Add(p, qty("3"))
		require.NoError(t, err)

		assert.Equal(t, 0, idx)
		assert.Equal(t, 1, cart.Len())
		line, _ := cart.Line(0)
		assert.True(t, line.Quantity.Equal(qty("5")))
		assert.Equal(t, "5.00", cart.Total().StringFixed(2))
	})

	t.Run("merge keeps the first price and takes the newer stock", func(t *testing.T) {
		cart := NewCart()
		_, err := cart.Add(discreteProduct("1", 4.00, 10), qty("2"))
		require.NoError(t, err)

		repriced := discreteProduct("1", 5.00, 3)
		_, err = cart.Add(repriced, qty("1"))
		require.NoError(t, err)

		line, _ := cart.Line(0)
		assert.True(t, line.Quantity.Equal(qty("3")))
		assert.Equal(t, "4.00", line.Product.UnitPrice.StringFixed(2))
		assert.True(t, line.Product.AvailableStock.Equal(qty("3")))
		assert.Equal(t, "12.00", cart.Total().StringFixed(2))

		_, err = cart.Add(repriced, qty("1"))
		assert.ErrorIs(t, err, shared.ErrStockExceeded)
	})

	t.Run("keeps insertion order", func(t *testing.T) {
		cart := NewCart()
		_, _ = cart.Add(discreteProduct("b", 1, 5), qty("1"))
		_, _ = cart.Add(discreteProduct("a", 1, 5), qty("1"))
		lines := cart.Lines()
		assert.Equal(t, "b", lines[0].Product.ID)
		assert.Equal(t, "a", lines[1].Product.ID)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		cart := NewCart()
		_, err := cart.Add(discreteProduct("1", 1, 5), qty("0"))
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
		_, err = cart.Add(discreteProduct("1", 1, 5), qty("-2"))
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
		assert.True(t, cart.IsEmpty())
	})

	t.Run("rejects fractional quantity of discrete product", func(t *testing.T) {
		cart := NewCart()
		_, err := cart.Add(discreteProduct("1", 1, 5), qty("1.5"))
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
	})

	t.Run("accepts fractional weight with three decimals", func(t *testing.T) {
		cart := NewCart()
		_, err := cart.Add(weightProduct("w", 10.00, "2.000"), qty("0.755"))
		require.NoError(t, err)
		assert.Equal(t, "7.55", cart.Total().StringFixed(2))
	})
}

func TestCart_StockCeiling(t *testing.T) {
	t.Run("second add over stock is rejected and cart unchanged", func(t *testing.T) {
		cart := NewCart()
		p := discreteProduct("1", 3.00, 5)

		_, err := cart.Add(p, qty("3"))
		require.NoError(t, err)

		_, err = cart.Add(p, qty("3"))
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrStockExceeded)

		var stockErr *StockExceededError
		require.True(t, errors.As(err, &stockErr))
		assert.True(t, stockErr.MaxAddable().Equal(qty("2")))
		assert.True(t, stockErr.Reserved.Equal(qty("3")))

		line, _ := cart.Line(0)
		assert.True(t, line.Quantity.Equal(qty("3")))
		assert.Equal(t, "9.00", cart.Total().StringFixed(2))
	})

	t.Run("exactly reaching the stock is allowed", func(t *testing.T) {
		cart := NewCart()
		p := discreteProduct("1", 1, 5)
		_, err := cart.Add(p, qty("5"))
		assert.NoError(t, err)
	})

	t.Run("edit excludes the edited line from the reservation", func(t *testing.T) {
		cart := NewCart()
		p := discreteProduct("1", 1, 5)
		_, err := cart.Add(p, qty("4"))
		require.NoError(t, err)

		require.NoError(t, cart.EditLine(0, qty("5")))
		line, _ := cart.Line(0)
		assert.True(t, line.Quantity.Equal(qty("5")))

		err = cart.EditLine(0, qty("6"))
		assert.ErrorIs(t, err, shared.ErrStockExceeded)
		line, _ = cart.Line(0)
		assert.True(t, line.Quantity.Equal(qty("5")))
	})

	t.Run("sequence of adds and edits never exceeds stock", func(t *testing.T) {
		cart := NewCart()
		p := weightProduct("w", 4.00, "2.500")
		ops := []struct {
			edit bool
			q    string
		}{
			{q: "1.000"}, {q: "1.000"}, {q: "0.600"}, {edit: true, q: "2.400"},
			{q: "0.100"}, {q: "0.001"}, {edit: true, q: "3.000"}, {edit: true, q: "0.500"},
			{q: "2.000"}, {q: "0.001"},
		}
		for _, op := range ops {
			if op.edit {
				_ = cart.EditLine(0, qty(op.q))
			} else {
				_, _ = cart.Add(p, qty(op.q))
			}
			assert.False(t, cart.Reserved("w", NoLine).GreaterThan(p.AvailableStock),
				"reserved %s exceeds stock", cart.Reserved("w", NoLine))
		}
		assert.True(t, cart.Reserved("w", NoLine).Equal(qty("2.500")))
	})
}

func TestCart_EditLine(t *testing.T) {
	t.Run("unknown index", func(t *testing.T) {
		cart := NewCart()
		assert.ErrorIs(t, cart.EditLine(3, qty("1")), shared.ErrLineNotFound)
	})

	t.Run("recomputes total", func(t *testing.T) {
		cart := NewCart()
		_, _ = cart.Add(discreteProduct("1", 2.00, 10), qty("1"))
		_, _ = cart.Add(discreteProduct("2", 5.00, 10), qty("1"))
		require.NoError(t, cart.EditLine(1, qty("3")))
		assert.Equal(t, "17.00", cart.Total().StringFixed(2))
	})
}

func TestCart_Remove(t *testing.T) {
	cart := NewCart()
	_, _ = cart.Add(discreteProduct("1", 2.00, 10), qty("1"))
	_, _ = cart.Add(discreteProduct("2", 5.00, 10), qty("2"))

	require.NoError(t, cart.Remove(0))
	assert.Equal(t, 1, cart.Len())
	assert.Equal(t, "10.00", cart.Total().StringFixed(2))

	assert.ErrorIs(t, cart.Remove(5), shared.ErrLineNotFound)

	require.NoError(t, cart.Remove(0))
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Total().IsZero())
}

func TestCart_Clear(t *testing.T) {
	cart := NewCart()
	_, _ = cart.Add(discreteProduct("1", 2.00, 10), qty("4"))
	cart.Clear()
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Total().IsZero())
}

func TestCart_LinesIsACopy(t *testing.T) {
	cart := NewCart()
	_, _ = cart.Add(discreteProduct("1", 2.00, 10), qty("1"))
	lines := cart.Lines()
	lines[0].Quantity = qty("9")

	line, _ := cart.Line(0)
	assert.True(t, line.Quantity.Equal(qty("1")))
}

func TestStockExceededError_Message(t *testing.T) {
	err := &StockExceededError{
		ProductName: "Arroz",
		Unit:        catalog.UnitDiscrete,
		Available:   qty("5"),
		Reserved:    qty("3"),
		Requested:   qty("3"),
	}
	assert.Contains(t, err.Error(), "Arroz")
	assert.True(t, err.MaxAddable().Equal(qty("2")))

	err.Reserved = qty("7")
	assert.True(t, err.MaxAddable().IsZero())
}
