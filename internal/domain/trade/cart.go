package trade

import (
	"github.com/mercearia/pdv/internal/domain/catalog"
	"github.com/mercearia/pdv/internal/domain/shared"
	"github.com/mercearia/pdv/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// NoLine excludes no line from a reservation sum
const NoLine = -1

// CartLine is a product snapshot and the quantity being sold
type CartLine struct {
	Product  catalog.ProductSnapshot
	Quantity decimal.Decimal
}

// Subtotal returns quantity * unit price
func (l CartLine) Subtotal() valueobject.Money {
	return l.Product.UnitPrice.Multiply(l.Quantity)
}

// Cart is the ordered list of lines of the sale in progress.
// Lines keep insertion order; the total is recomputed after every mutation.
//
// Invariant: for every product, the sum of quantities over its lines never
// exceeds the product's last-known available stock.
type Cart struct {
	lines []CartLine
	total valueobject.Money
}

// NewCart creates an empty cart
func NewCart() *Cart {
	return &Cart{total: valueobject.ZeroBRL()}
}

// Lines returns a copy of the cart lines in insertion order
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Line returns the line at index
func (c *Cart) Line(index int) (CartLine, error) {
	if index < 0 || index >= len(c.lines) {
		return CartLine{}, shared.ErrLineNotFound
	}
	return c.lines[index], nil
}

// Len returns the number of lines
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty returns true if the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Total returns the running total
func (c *Cart) Total() valueobject.Money {
	return c.total
}

// Reserved sums the quantities of a product across lines, skipping excludeIndex
func (c *Cart) Reserved(productID string, excludeIndex int) decimal.Decimal {
	sum := decimal.Zero
	for i, line := range c.lines {
		if i == excludeIndex || line.Product.ID != productID {
			continue
		}
		sum = sum.Add(line.Quantity)
	}
	return sum
}

// CheckStock verifies that quantity more of product fits under its stock ceiling
func (c *Cart) CheckStock(product catalog.ProductSnapshot, quantity decimal.Decimal, excludeIndex int) error {
	reserved := c.Reserved(product.ID, excludeIndex)
	if reserved.Add(quantity).GreaterThan(product.AvailableStock) {
		return &StockExceededError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Unit:        product.Unit,
			Available:   product.AvailableStock,
			Reserved:    reserved,
			Requested:   quantity,
		}
	}
	return nil
}

// Add inserts quantity of product, merging into an existing line for the same
// product and unit kind. It returns the index of the affected line.
func (c *Cart) Add(product catalog.ProductSnapshot, quantity decimal.Decimal) (int, error) {
	if err := catalog.ValidateQuantity(product.Unit, quantity); err != nil {
		return NoLine, err
	}
	if err := c.CheckStock(product, quantity, NoLine); err != nil {
		return NoLine, err
	}

	for i, line := range c.lines {
		if line.Product.ID == product.ID && line.Product.Unit == product.Unit {
			// The newer snapshot carries the last-known stock; units already in
			// the cart keep the price they were added at.
			merged := product
			merged.UnitPrice = line.Product.UnitPrice
			c.lines[i] = CartLine{Product: merged, Quantity: line.Quantity.Add(quantity)}
			c.recalculate()
			return i, nil
		}
	}

	c.lines = append(c.lines, CartLine{Product: product, Quantity: quantity})
	c.recalculate()
	return len(c.lines) - 1, nil
}

// EditLine replaces the quantity of the line at index, re-running the stock
// ceiling check with that line excluded from the reservation.
func (c *Cart) EditLine(index int, quantity decimal.Decimal) error {
	line, err := c.Line(index)
	if err != nil {
		return err
	}
	if err := catalog.ValidateQuantity(line.Product.Unit, quantity); err != nil {
		return err
	}
	if err := c.CheckStock(line.Product, quantity, index); err != nil {
		return err
	}

	c.lines[index].Quantity = quantity
	c.recalculate()
	return nil
}

// Remove deletes the line at index. Removal can never break the stock invariant.
func (c *Cart) Remove(index int) error {
	if index < 0 || index >= len(c.lines) {
		return shared.ErrLineNotFound
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	c.recalculate()
	return nil
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.lines = nil
	c.recalculate()
}

// recalculate recomputes the total from the lines
func (c *Cart) recalculate() {
	total := valueobject.ZeroBRL()
	for _, line := range c.lines {
		total = total.MustAdd(line.Subtotal())
	}
	c.total = total
}
