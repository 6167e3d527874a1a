package trade

import (
	"github.com/mercearia/pdv/internal/domain/partner"
	"github.com/mercearia/pdv/internal/domain/shared/valueobject"
)

// PaymentMethod identifies a payment method. The value is the label the
// store backend records for the sale.
type PaymentMethod string

const (
	PaymentMethodCash      PaymentMethod = "Dinheiro"
	PaymentMethodPix       PaymentMethod = "Pix"
	PaymentMethodDebit     PaymentMethod = "Debito"
	PaymentMethodCredit    PaymentMethod = "Credito"
	PaymentMethodOnAccount PaymentMethod = "Fiado"
)

// PaymentKind groups methods by the sub-flow they require
type PaymentKind string

const (
	PaymentKindCash       PaymentKind = "cash"
	PaymentKindCard       PaymentKind = "card"
	PaymentKindElectronic PaymentKind = "electronic"
	PaymentKindOnAccount  PaymentKind = "on_account"
)

// DefaultPaymentMethods returns the methods offered at checkout, in display order
func DefaultPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCash,
		PaymentMethodPix,
		PaymentMethodDebit,
		PaymentMethodCredit,
		PaymentMethodOnAccount,
	}
}

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodPix, PaymentMethodDebit, PaymentMethodCredit, PaymentMethodOnAccount:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Kind returns the sub-flow kind of the method
func (m PaymentMethod) Kind() PaymentKind {
	switch m {
	case PaymentMethodCash:
		return PaymentKindCash
	case PaymentMethodDebit, PaymentMethodCredit:
		return PaymentKindCard
	case PaymentMethodOnAccount:
		return PaymentKindOnAccount
	default:
		return PaymentKindElectronic
	}
}

// PaymentSelection is the resolved payment of a checkout. Exactly one of
// CashPayment, CardPayment, ElectronicPayment or OnAccountPayment.
type PaymentSelection interface {
	Method() PaymentMethod
	isPaymentSelection()
}

// CashPayment is a cash sale with the amount handed over by the customer
type CashPayment struct {
	Received valueobject.Money
	Change   valueobject.Money
}

// Method implements PaymentSelection
func (CashPayment) Method() PaymentMethod { return PaymentMethodCash }

func (CashPayment) isPaymentSelection() {}

// CardPayment is a debit or credit card sale, recorded as a label only
type CardPayment struct {
	Kind PaymentMethod
}

// Method implements PaymentSelection
func (p CardPayment) Method() PaymentMethod { return p.Kind }

func (CardPayment) isPaymentSelection() {}

// ElectronicPayment is an instant transfer (Pix), recorded as a label only
type ElectronicPayment struct {
	Kind PaymentMethod
}

// Method implements PaymentSelection
func (p ElectronicPayment) Method() PaymentMethod { return p.Kind }

func (ElectronicPayment) isPaymentSelection() {}

// OnAccountPayment charges the sale to the customer's running balance
type OnAccountPayment struct {
	Customer partner.CustomerSnapshot
}

// Method implements PaymentSelection
func (OnAccountPayment) Method() PaymentMethod { return PaymentMethodOnAccount }

func (OnAccountPayment) isPaymentSelection() {}

// CustomerIDOf returns the customer charged by the selection, if any
func CustomerIDOf(sel PaymentSelection) string {
	if p, ok := sel.(OnAccountPayment); ok {
		return p.Customer.ID
	}
	return ""
}

// ComputeChange returns max(0, received - total), both rounded to cents
func ComputeChange(received, total valueobject.Money) valueobject.Money {
	return received.RoundCents().MustSubtract(total.RoundCents()).NonNegative()
}

// CoversTotal reports whether received pays total, comparing in cents
func CoversTotal(received, total valueobject.Money) bool {
	return received.RoundCents().GreaterThanOrEqual(total.RoundCents())
}
