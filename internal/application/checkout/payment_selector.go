package checkout

import (
	"slices"

	"github.com/mercearia/pdv/internal/application/lookup"
	"github.com/mercearia/pdv/internal/domain/partner"
	"github.com/mercearia/pdv/internal/domain/shared"
	"github.com/mercearia/pdv/internal/domain/shared/valueobject"
	"github.com/mercearia/pdv/internal/domain/trade"
)

// SelectorState is the state of the payment selector
type SelectorState int

const (
	StateChoosingMethod SelectorState = iota
	StateMethodChosen
	StateEnteringCashAmount
	StateReady
	StateConfirmed
)

// String returns the string representation of SelectorState
func (s SelectorState) String() string {
	switch s {
	case StateChoosingMethod:
		return "choosing_method"
	case StateMethodChosen:
		return "method_chosen"
	case StateEnteringCashAmount:
		return "entering_cash_amount"
	case StateReady:
		return "ready"
	case StateConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// PaymentSelector is the keyboard-driven payment flow of one checkout:
//
//	ChoosingMethod -> MethodChosen(method) -> [cash: EnteringCashAmount] -> Ready -> Confirmed
//
// Choosing a method always starts from a clean slate: a half-typed received
// amount or a resolved customer never survives a method change.
type PaymentSelector struct {
	methods   []trade.PaymentMethod
	highlight int
	state     SelectorState
	method    trade.PaymentMethod
	total     valueobject.Money

	// cash
	cashInput string
	received  valueobject.Money
	change    valueobject.Money

	// on-account
	customers        *lookup.Lookup[partner.CustomerSnapshot]
	customer         partner.CustomerSnapshot
	overridePending  bool
	overrideAccepted bool
	registering      bool

	selection trade.PaymentSelection
}

// NewPaymentSelector opens the payment flow for a sale of total
func NewPaymentSelector(total valueobject.Money, methods []trade.PaymentMethod, minQueryLength int) *PaymentSelector {
	if len(methods) == 0 {
		methods = trade.DefaultPaymentMethods()
	}
	return &PaymentSelector{
		methods:   methods,
		state:     StateChoosingMethod,
		total:     total,
		received:  valueobject.ZeroBRL(),
		change:    valueobject.ZeroBRL(),
		customers: lookup.New[partner.CustomerSnapshot](minQueryLength),
	}
}

func (*PaymentSelector) isOverlay() {}

// State returns the selector state
func (p *PaymentSelector) State() SelectorState {
	return p.state
}

// Total returns the amount being paid
func (p *PaymentSelector) Total() valueobject.Money {
	return p.total
}

// Methods returns the offered methods in display order
func (p *PaymentSelector) Methods() []trade.PaymentMethod {
	return p.methods
}

// HighlightIndex returns the highlighted entry of the method list
func (p *PaymentSelector) HighlightIndex() int {
	return p.highlight
}

// Highlighted returns the highlighted method
func (p *PaymentSelector) Highlighted() trade.PaymentMethod {
	return p.methods[p.highlight]
}

// Method returns the chosen method, or "" while choosing
func (p *PaymentSelector) Method() trade.PaymentMethod {
	return p.method
}

// Next highlights the next method, wrapping around
func (p *PaymentSelector) Next() {
	if p.state != StateChoosingMethod {
		return
	}
	p.highlight = (p.highlight + 1) % len(p.methods)
}

// Prev highlights the previous method, wrapping around
func (p *PaymentSelector) Prev() {
	if p.state != StateChoosingMethod {
		return
	}
	p.highlight = (p.highlight - 1 + len(p.methods)) % len(p.methods)
}

// HighlightMethod highlights the method at index (pointer hover)
func (p *PaymentSelector) HighlightMethod(index int) {
	if p.state == StateChoosingMethod && index >= 0 && index < len(p.methods) {
		p.highlight = index
	}
}

// Choose confirms the highlighted method
func (p *PaymentSelector) Choose() error {
	return p.ChooseMethod(p.Highlighted())
}

// ChooseMethod moves to the sub-flow of method, discarding any transient
// state of a previously chosen method. Card and electronic payments need no
// further data and become Ready at once.
func (p *PaymentSelector) ChooseMethod(method trade.PaymentMethod) error {
	if p.state == StateConfirmed {
		return shared.ErrInvalidState
	}
	index := slices.Index(p.methods, method)
	if index < 0 {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not offered")
	}

	p.reset()
	p.highlight = index
	p.method = method
	p.state = StateMethodChosen

	switch method.Kind() {
	case trade.PaymentKindCash:
		p.state = StateEnteringCashAmount
		p.SetCashInput(p.total.InputBR())
	case trade.PaymentKindCard:
		p.ready(trade.CardPayment{Kind: method})
	case trade.PaymentKindElectronic:
		p.ready(trade.ElectronicPayment{Kind: method})
	}
	return nil
}

// Back returns to the method list, discarding the chosen method's state.
// It returns false when already choosing, meaning the caller should close the flow.
func (p *PaymentSelector) Back() bool {
	if p.state == StateChoosingMethod || p.state == StateConfirmed {
		return false
	}
	p.reset()
	p.state = StateChoosingMethod
	return true
}

// SetCashInput records the typed received amount and recomputes the change
func (p *PaymentSelector) SetCashInput(input string) {
	if p.state != StateEnteringCashAmount {
		return
	}
	p.cashInput = input
	received, err := valueobject.ParseBRL(input)
	if err != nil {
		received = valueobject.ZeroBRL()
	}
	p.received = received
	p.change = trade.ComputeChange(received, p.total)
}

// CashInput returns the typed received amount
func (p *PaymentSelector) CashInput() string {
	return p.cashInput
}

// Received returns the parsed received amount
func (p *PaymentSelector) Received() valueobject.Money {
	return p.received
}

// Change returns max(0, received - total)
func (p *PaymentSelector) Change() valueobject.Money {
	return p.change
}

// ConfirmCash accepts the received amount if it covers the total
func (p *PaymentSelector) ConfirmCash() error {
	if p.state != StateEnteringCashAmount {
		return shared.ErrInvalidState
	}
	if !trade.CoversTotal(p.received, p.total) {
		return shared.ErrInsufficientCash
	}
	p.ready(trade.CashPayment{Received: p.received.RoundCents(), Change: p.change})
	return nil
}

// Customers returns the customer search of the on-account flow
func (p *PaymentSelector) Customers() *lookup.Lookup[partner.CustomerSnapshot] {
	return p.customers
}

// AwaitingCustomer reports whether the on-account flow still needs a confirmed customer
func (p *PaymentSelector) AwaitingCustomer() bool {
	return p.state == StateMethodChosen && p.method.Kind() == trade.PaymentKindOnAccount
}

// SetCustomerQuery updates the customer search while no customer is resolved
func (p *PaymentSelector) SetCustomerQuery(query string) (lookup.Request, bool) {
	if !p.AwaitingCustomer() || p.customer.IsResolved() {
		return lookup.Request{}, false
	}
	return p.customers.SetQuery(query)
}

// SelectCustomer resolves the highlighted search result
func (p *PaymentSelector) SelectCustomer() bool {
	if !p.AwaitingCustomer() {
		return false
	}
	c, ok := p.customers.SelectHighlighted()
	if !ok {
		return false
	}
	p.ResolveCustomer(c)
	return true
}

// ResolveCustomer sets the customer the sale is charged to
func (p *PaymentSelector) ResolveCustomer(c partner.CustomerSnapshot) {
	if !p.AwaitingCustomer() {
		return
	}
	p.customers.Clear()
	p.customer = c
	p.overridePending = false
	p.overrideAccepted = false
	p.registering = false
}

// Customer returns the resolved customer
func (p *PaymentSelector) Customer() (partner.CustomerSnapshot, bool) {
	return p.customer, p.customer.IsResolved()
}

// ProjectedBalance returns the resolved customer's balance after this sale
func (p *PaymentSelector) ProjectedBalance() valueobject.Money {
	return p.customer.ProjectedBalance(p.total)
}

// ExceedsCreditLimit reports whether this sale pushes the customer past the limit
func (p *PaymentSelector) ExceedsCreditLimit() bool {
	return p.customer.IsResolved() && p.customer.ExceedsCreditLimit(p.total)
}

// ChangeCustomer drops the resolved customer and reopens the search
func (p *PaymentSelector) ChangeCustomer() {
	if p.method.Kind() != trade.PaymentKindOnAccount || p.state == StateConfirmed {
		return
	}
	p.customer = partner.CustomerSnapshot{}
	p.customers.Clear()
	p.overridePending = false
	p.overrideAccepted = false
	p.selection = nil
	p.state = StateMethodChosen
}

// ConfirmCustomer accepts the resolved customer. When the sale would exceed
// the credit limit it asks for an override and returns ErrCreditLimitExceeded.
func (p *PaymentSelector) ConfirmCustomer() error {
	if !p.AwaitingCustomer() {
		return shared.ErrInvalidState
	}
	if !p.customer.IsResolved() {
		return shared.ErrNoCustomerSelected
	}
	if p.ExceedsCreditLimit() && !p.overrideAccepted {
		p.overridePending = true
		return shared.ErrCreditLimitExceeded
	}
	p.ready(trade.OnAccountPayment{Customer: p.customer})
	return nil
}

// OverridePending reports whether the credit limit override is being asked
func (p *PaymentSelector) OverridePending() bool {
	return p.overridePending
}

// AcceptOverride lets the sale exceed the customer's credit limit
func (p *PaymentSelector) AcceptOverride() error {
	if !p.overridePending {
		return shared.ErrInvalidState
	}
	p.overridePending = false
	p.overrideAccepted = true
	p.ready(trade.OnAccountPayment{Customer: p.customer})
	return nil
}

// DeclineOverride keeps the customer but returns to the on-account step
func (p *PaymentSelector) DeclineOverride() {
	p.overridePending = false
}

// StartRegistration opens the quick customer registration form
func (p *PaymentSelector) StartRegistration() bool {
	if !p.AwaitingCustomer() {
		return false
	}
	p.registering = true
	p.overridePending = false
	return true
}

// CancelRegistration closes the registration form
func (p *PaymentSelector) CancelRegistration() {
	p.registering = false
}

// Registering reports whether the registration form is open
func (p *PaymentSelector) Registering() bool {
	return p.registering
}

// Confirm moves Ready to Confirmed and yields the resolved payment
func (p *PaymentSelector) Confirm() (trade.PaymentSelection, error) {
	if p.state != StateReady || p.selection == nil {
		return nil, shared.ErrPaymentNotReady
	}
	p.state = StateConfirmed
	return p.selection, nil
}

// Unconfirm returns a Confirmed selector to Ready after a failed commit
func (p *PaymentSelector) Unconfirm() {
	if p.state == StateConfirmed {
		p.state = StateReady
	}
}

// Selection returns the resolved payment, or nil before Ready
func (p *PaymentSelector) Selection() trade.PaymentSelection {
	return p.selection
}

func (p *PaymentSelector) ready(sel trade.PaymentSelection) {
	p.selection = sel
	p.state = StateReady
}

func (p *PaymentSelector) reset() {
	p.method = ""
	p.cashInput = ""
	p.received = valueobject.ZeroBRL()
	p.change = valueobject.ZeroBRL()
	p.customer = partner.CustomerSnapshot{}
	p.customers.Clear()
	p.overridePending = false
	p.overrideAccepted = false
	p.registering = false
	p.selection = nil
}
