package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// This lets callers match on the shared sentinels below even when the
// concrete error carries a more specific message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidInput            = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState            = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvalidQuantity         = NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	ErrStockExceeded           = NewDomainError("STOCK_EXCEEDED", "Requested quantity exceeds available stock")
	ErrOutOfStock              = NewDomainError("OUT_OF_STOCK", "Product has no stock available")
	ErrLineNotFound            = NewDomainError("LINE_NOT_FOUND", "Cart line not found")
	ErrEmptyCart               = NewDomainError("EMPTY_CART", "Cart is empty")
	ErrInsufficientCash        = NewDomainError("INSUFFICIENT_CASH_RECEIVED", "Received amount is less than the total")
	ErrNoCustomerSelected      = NewDomainError("NO_CUSTOMER_SELECTED", "Select a valid customer")
	ErrCreditLimitExceeded     = NewDomainError("CREDIT_LIMIT_EXCEEDED", "Customer will exceed the credit limit")
	ErrCommitInFlight          = NewDomainError("COMMIT_IN_FLIGHT", "A sale is already being finalized")
	ErrPaymentNotReady         = NewDomainError("PAYMENT_NOT_READY", "Payment details are not resolved")
	ErrInvalidCustomerName     = NewDomainError("INVALID_CUSTOMER_NAME", "Customer name is required")
	ErrInvalidCreditLimitInput = NewDomainError("INVALID_CREDIT_LIMIT", "Credit limit cannot be negative")
)
