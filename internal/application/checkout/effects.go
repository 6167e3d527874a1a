package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/mercearia/pdv/internal/domain/catalog"
	"github.com/mercearia/pdv/internal/domain/partner"
	"github.com/mercearia/pdv/internal/domain/shared/valueobject"
	"github.com/mercearia/pdv/internal/domain/trade"
)

// SearchTarget names one of the two live searches of the checkout
type SearchTarget string

const (
	SearchProducts  SearchTarget = "products"
	SearchCustomers SearchTarget = "customers"
)

// Effect is work requested by the Session: a timer or a backend call.
// Effects are run by an Executor, which turns each one into a Result.
type Effect interface {
	isEffect()
}

// ScheduleDebounce waits for the debounce window of a search keystroke
type ScheduleDebounce struct {
	Target     SearchTarget
	Generation uint64
	Delay      time.Duration
}

// FetchProducts runs a product search
type FetchProducts struct {
	StoreID    string
	Generation uint64
	Query      string
}

// FetchCustomers runs a customer search for the on-account flow
type FetchCustomers struct {
	StoreID    string
	Generation uint64
	Query      string
}

// SubmitSale issues the single commit request of a sale
type SubmitSale struct {
	Intent *trade.SaleIntent
}

// RegisterCustomer creates a customer from the on-account flow
type RegisterCustomer struct {
	StoreID string
	Draft   partner.CustomerDraft
}

// ExpireNotice dismisses a transient notice after its lifetime
type ExpireNotice struct {
	ID    uuid.UUID
	After time.Duration
}

func (ScheduleDebounce) isEffect() {}
func (FetchProducts) isEffect()    {}
func (FetchCustomers) isEffect()   {}
func (SubmitSale) isEffect()       {}
func (RegisterCustomer) isEffect() {}
func (ExpireNotice) isEffect()     {}

// Result is the outcome of an Effect, applied with Session.Apply
type Result interface {
	isResult()
}

// DebounceElapsed reports that a debounce window ended
type DebounceElapsed struct {
	Target     SearchTarget
	Generation uint64
}

// ProductsLoaded carries the response of a product search
type ProductsLoaded struct {
	Generation uint64
	Products   []catalog.ProductSnapshot
	Err        error
}

// CustomersLoaded carries the response of a customer search
type CustomersLoaded struct {
	Generation uint64
	Customers  []partner.CustomerSnapshot
	Err        error
}

// SaleSettled carries the outcome of a commit request
type SaleSettled struct {
	Total  valueobject.Money
	Method trade.PaymentMethod
	Err    error
}

// CustomerRegistered carries the outcome of a quick registration
type CustomerRegistered struct {
	Customer partner.CustomerSnapshot
	Err      error
}

// NoticeExpired reports that a notice reached the end of its lifetime
type NoticeExpired struct {
	ID uuid.UUID
}

func (DebounceElapsed) isResult()    {}
func (ProductsLoaded) isResult()     {}
func (CustomersLoaded) isResult()    {}
func (SaleSettled) isResult()        {}
func (CustomerRegistered) isResult() {}
func (NoticeExpired) isResult()      {}
