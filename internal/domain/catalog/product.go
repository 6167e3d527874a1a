package catalog

import (
	"fmt"
	"strings"

	"github.com/mercearia/pdv/internal/domain/shared"
	"github.com/mercearia/pdv/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// UnitKind tells whether a product is sold by count or by a continuous measure
type UnitKind string

const (
	UnitDiscrete   UnitKind = "un" // Sold by whole units
	UnitContinuous UnitKind = "kg" // Sold by weight, fractional quantities allowed
)

// ContinuousPrecision is the number of decimal places kept for continuous quantities
const ContinuousPrecision int32 = 3

// IsValid checks if the unit kind is known
func (u UnitKind) IsValid() bool {
	return u == UnitDiscrete || u == UnitContinuous
}

// IsContinuous returns true for weight-like units
func (u UnitKind) IsContinuous() bool {
	return u == UnitContinuous
}

// String returns the string representation of UnitKind
func (u UnitKind) String() string {
	return string(u)
}

// ParseUnitKind maps a backend unit code to a UnitKind.
// Unknown codes are treated as discrete.
func ParseUnitKind(code string) UnitKind {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "kg", "g", "l", "ml":
		return UnitContinuous
	default:
		return UnitDiscrete
	}
}

// ProductSnapshot is a read-only view of a product as returned by a search.
// It is never mutated locally; each search returns fresh snapshots.
type ProductSnapshot struct {
	ID             string
	Name           string
	CategoryName   string
	UnitPrice      valueobject.Money
	Unit           UnitKind
	AvailableStock decimal.Decimal
}

// HasStock returns true if any stock is known to be available
func (p ProductSnapshot) HasStock() bool {
	return p.AvailableStock.IsPositive()
}

// IsOutOfStock returns true when the snapshot reports no stock at all
func (p ProductSnapshot) IsOutOfStock() bool {
	return !p.HasStock()
}

// MinimumQuantityFor returns the smallest positive quantity accepted for the unit
func MinimumQuantityFor(unit UnitKind) decimal.Decimal {
	if unit.IsContinuous() {
		return decimal.New(1, -ContinuousPrecision)
	}
	return decimal.NewFromInt(1)
}

// ValidateQuantity checks a quantity against the unit rules:
// positive, integral for discrete units, at most 3 decimals for continuous ones.
func ValidateQuantity(unit UnitKind, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.ErrInvalidQuantity
	}
	if unit.IsContinuous() {
		if !quantity.Equal(quantity.Truncate(ContinuousPrecision)) {
			return shared.NewDomainError("INVALID_QUANTITY",
				fmt.Sprintf("Quantity cannot have more than %d decimal places", ContinuousPrecision))
		}
		return nil
	}
	if !quantity.IsInteger() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a whole number of units")
	}
	return nil
}

// ParseQuantity parses operator input for the given unit.
// Empty or unparseable input yields zero, mirroring a cleared numeric field.
func ParseQuantity(unit UnitKind, input string) decimal.Decimal {
	d, err := valueobject.ParseLocalizedDecimal(input)
	if err != nil {
		return decimal.Zero
	}
	if unit.IsContinuous() {
		return d.Round(ContinuousPrecision)
	}
	return d
}

// FormatQuantity renders a quantity for the unit ("3" or "1.250")
func FormatQuantity(unit UnitKind, quantity decimal.Decimal) string {
	if unit.IsContinuous() {
		return quantity.StringFixed(ContinuousPrecision)
	}
	return quantity.StringFixed(0)
}
