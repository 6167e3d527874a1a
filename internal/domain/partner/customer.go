package partner

import (
	"strings"
	"unicode/utf8"

	"github.com/mercearia/pdv/internal/domain/shared"
	"github.com/mercearia/pdv/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CustomerSnapshot is a read-only view of a customer used by on-account sales.
// The authoritative balance is updated server-side when a sale is committed.
type CustomerSnapshot struct {
	ID          string
	Name        string
	Phone       string
	Balance     valueobject.Money // Current outstanding balance
	CreditLimit valueobject.Money // Zero means no limit
}

// HasCreditLimit returns true if the customer has a positive credit limit
func (c CustomerSnapshot) HasCreditLimit() bool {
	return c.CreditLimit.IsPositive()
}

// ProjectedBalance returns the balance the customer would owe after a sale of total
func (c CustomerSnapshot) ProjectedBalance(total valueobject.Money) valueobject.Money {
	return c.Balance.MustAdd(total)
}

// ExceedsCreditLimit reports whether a sale of total would push the balance past the limit
func (c CustomerSnapshot) ExceedsCreditLimit(total valueobject.Money) bool {
	if !c.HasCreditLimit() {
		return false
	}
	return c.ProjectedBalance(total).GreaterThan(c.CreditLimit)
}

// IsResolved returns true if the snapshot identifies a real customer
func (c CustomerSnapshot) IsResolved() bool {
	return strings.TrimSpace(c.ID) != ""
}

// CustomerDraft holds the fields for registering a customer from the checkout
type CustomerDraft struct {
	Name        string
	Phone       string
	CreditLimit decimal.Decimal
}

// NewCustomerDraft validates and normalizes a quick-registration request
func NewCustomerDraft(name, phone, creditLimit string) (CustomerDraft, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CustomerDraft{}, shared.ErrInvalidCustomerName
	}
	if utf8.RuneCountInString(name) > 200 {
		return CustomerDraft{}, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot exceed 200 characters")
	}

	limit := decimal.Zero
	if strings.TrimSpace(creditLimit) != "" {
		d, err := valueobject.ParseLocalizedDecimal(creditLimit)
		if err != nil {
			return CustomerDraft{}, shared.NewDomainError("INVALID_CREDIT_LIMIT", "Credit limit must be a number")
		}
		if d.IsNegative() {
			return CustomerDraft{}, shared.ErrInvalidCreditLimitInput
		}
		limit = d
	}

	return CustomerDraft{
		Name:        name,
		Phone:       strings.TrimSpace(phone),
		CreditLimit: limit,
	}, nil
}
