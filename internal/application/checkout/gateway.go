// Package checkout implements the point-of-sale checkout flow: the quantity
// prompt, the payment selector state machine and the Session that composes
// them with the cart and the live searches into a single commit.
//
// Session is a pure state machine. Every operator input returns the effects
// (timers, backend calls) it requires; an Executor runs them and feeds the
// results back through Session.Apply. The event loop that owns the Session is
// the only goroutine that touches it.
package checkout

import (
	"context"

	"github.com/mercearia/pdv/internal/domain/catalog"
	"github.com/mercearia/pdv/internal/domain/partner"
	"github.com/mercearia/pdv/internal/domain/trade"
)

// Gateway is the store backend as seen by the checkout
type Gateway interface {
	// SearchProducts returns product snapshots matching query, capped by the backend
	SearchProducts(ctx context.Context, storeID, query string) ([]catalog.ProductSnapshot, error)
	// SearchCustomers returns customer snapshots matching query
	SearchCustomers(ctx context.Context, storeID, query string) ([]partner.CustomerSnapshot, error)
	// FinalizeSale commits the sale. The backend decrements stock, records the
	// sale and, for on-account sales, updates the customer balance.
	FinalizeSale(ctx context.Context, intent *trade.SaleIntent) error
	// CreateCustomer registers a customer and returns its snapshot
	CreateCustomer(ctx context.Context, storeID string, draft partner.CustomerDraft) (partner.CustomerSnapshot, error)
}
