package trade

import (
	"fmt"

	"github.com/mercearia/pdv/internal/domain/catalog"
	"github.com/mercearia/pdv/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockExceededError is returned when a cart operation would reserve more of a
// product than its last-known available stock. No cart mutation happens.
type StockExceededError struct {
	ProductID   string
	ProductName string
	Unit        catalog.UnitKind
	Available   decimal.Decimal
	Reserved    decimal.Decimal // Already in the cart, excluding a line under edit
	Requested   decimal.Decimal
}

// MaxAddable is the largest quantity that could still be added
func (e *StockExceededError) MaxAddable() decimal.Decimal {
	addable := e.Available.Sub(e.Reserved)
	if addable.IsNegative() {
		return decimal.Zero
	}
	return addable
}

// FormatMaxAddable renders MaxAddable for the product unit ("2" or "0.350")
func (e *StockExceededError) FormatMaxAddable() string {
	return catalog.FormatQuantity(e.Unit, e.MaxAddable())
}

// Error implements the error interface
func (e *StockExceededError) Error() string {
	return fmt.Sprintf("stock exceeded for %q: available %s %s, already in cart %s, requested %s",
		e.ProductName,
		catalog.FormatQuantity(e.Unit, e.Available), e.Unit,
		catalog.FormatQuantity(e.Unit, e.Reserved),
		catalog.FormatQuantity(e.Unit, e.Requested),
	)
}

// Unwrap lets errors.Is match shared.ErrStockExceeded
func (e *StockExceededError) Unwrap() error {
	return shared.ErrStockExceeded
}
