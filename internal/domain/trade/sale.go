package trade

import (
	"strings"

	"github.com/mercearia/pdv/internal/domain/shared"
	"github.com/mercearia/pdv/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SaleLine is one cart line as sent to the backend
type SaleLine struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice valueobject.Money
}

// SaleIntent is the payload of the single commit request of a checkout.
// It is built at commit time and lives only for the request.
type SaleIntent struct {
	StoreID    string
	Lines      []SaleLine
	Total      valueobject.Money
	Payment    PaymentSelection
	CustomerID string
}

// NewSaleIntent snapshots the cart and the resolved payment into a SaleIntent
func NewSaleIntent(storeID string, cart *Cart, payment PaymentSelection) (*SaleIntent, error) {
	if strings.TrimSpace(storeID) == "" {
		return nil, shared.NewDomainError("INVALID_STORE", "Store ID cannot be empty")
	}
	if cart == nil || cart.IsEmpty() {
		return nil, shared.ErrEmptyCart
	}
	if payment == nil {
		return nil, shared.ErrPaymentNotReady
	}
	if p, ok := payment.(OnAccountPayment); ok && !p.Customer.IsResolved() {
		return nil, shared.ErrNoCustomerSelected
	}

	lines := make([]SaleLine, 0, cart.Len())
	for _, line := range cart.Lines() {
		lines = append(lines, SaleLine{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.UnitPrice,
		})
	}

	return &SaleIntent{
		StoreID:    storeID,
		Lines:      lines,
		Total:      cart.Total(),
		Payment:    payment,
		CustomerID: CustomerIDOf(payment),
	}, nil
}

// Method returns the payment method label of the sale
func (s *SaleIntent) Method() PaymentMethod {
	return s.Payment.Method()
}
