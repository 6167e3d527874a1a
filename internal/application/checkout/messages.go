package checkout

import (
	"errors"
	"strings"

	"github.com/mercearia/pdv/internal/domain/shared"
	"github.com/mercearia/pdv/internal/domain/trade"
)

// Message keys shown to the operator. The keys are the English text; the
// terminal registers translations for each of them.
const (
	MsgSaleCompleted        = "Sale completed: %s"
	MsgSaleRejected         = "Sale not completed: %s"
	MsgSaleStockConstraint  = "Stock error: check the quantities in the cart"
	MsgSaleUnknownError     = "Unknown error from the backend"
	MsgBackendUnavailable   = "Backend unavailable, try again"
	MsgOutOfStock           = "%s is out of stock"
	MsgStockCeilingReached  = "Maximum stock of %s already in the cart"
	MsgStockExceeded        = "Only %s more of %s available"
	MsgInvalidQuantity      = "Invalid quantity"
	MsgEmptyCart            = "The cart is empty"
	MsgInsufficientCash     = "Received amount is less than the total"
	MsgNoCustomerSelected   = "Select a valid customer"
	MsgCreditLimitExceeded  = "%s will exceed the credit limit (%s of %s)"
	MsgCustomerRegistered   = "Customer %s registered"
	MsgCustomerRegisterFail = "Could not register the customer: %s"
	MsgCommitInFlight       = "The sale is already being finalized"
)

// Message is an operator-facing text: a key from the catalog plus its arguments
type Message struct {
	Key  string
	Args []any
}

// NewMessage creates a message
func NewMessage(key string, args ...any) Message {
	return Message{Key: key, Args: args}
}

// ServerRejection is implemented by errors that carry the message a backend
// reported when it refused a request.
type ServerRejection interface {
	error
	ServerMessage() string
}

// Unavailability is implemented by errors raised when the backend could not be
// reached at all (network failure, open circuit).
type Unavailability interface {
	error
	Unavailable() bool
}

// CommitFailureMessage maps a failed commit to the text shown to the operator.
// A message reported by the backend is shown verbatim, except constraint
// violations, which are only detectable at commit time and get a stock hint.
func CommitFailureMessage(err error) Message {
	var rejection ServerRejection
	if errors.As(err, &rejection) {
		text := strings.TrimSpace(rejection.ServerMessage())
		switch {
		case text == "":
			return NewMessage(MsgSaleUnknownError)
		case strings.Contains(strings.ToLower(text), "check constraint"):
			return NewMessage(MsgSaleStockConstraint)
		default:
			return NewMessage(MsgSaleRejected, text)
		}
	}

	var unavailable Unavailability
	if errors.As(err, &unavailable) && unavailable.Unavailable() {
		return NewMessage(MsgBackendUnavailable)
	}
	return NewMessage(MsgSaleUnknownError)
}

// localFailureMessage maps a recoverable local error to operator text
func localFailureMessage(err error) Message {
	var stockErr *trade.StockExceededError
	switch {
	case errors.As(err, &stockErr):
		return NewMessage(MsgStockExceeded, stockErr.FormatMaxAddable(), stockErr.ProductName)
	case errors.Is(err, shared.ErrEmptyCart):
		return NewMessage(MsgEmptyCart)
	case errors.Is(err, shared.ErrInsufficientCash):
		return NewMessage(MsgInsufficientCash)
	case errors.Is(err, shared.ErrNoCustomerSelected):
		return NewMessage(MsgNoCustomerSelected)
	case errors.Is(err, shared.ErrCommitInFlight):
		return NewMessage(MsgCommitInFlight)
	case errors.Is(err, shared.ErrInvalidQuantity):
		return NewMessage(MsgInvalidQuantity)
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return Message{Key: domainErr.Message}
	}
	return NewMessage(MsgSaleUnknownError)
}
