package trade

import (
	"testing"

	"github.com/mercearia/pdv/internal/domain/partner"
	"github.com/mercearia/pdv/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSaleIntent(t *testing.T) {
	t.Run("snapshots cart lines and total", func(t *testing.T) {
		cart := NewCart()
		_, _ = cart.Add(discreteProduct("1", 2.50, 10), qty("2"))
		_, _ = cart.Add(weightProduct("w", 10.00, "5"), qty("0.250"))

		intent, err := NewSaleIntent("store-1", cart, CardPayment{Kind: PaymentMethodDebit})
		require.NoError(t, err)

		assert.Equal(t, "store-1", intent.StoreID)
		assert.Equal(t, "7.50", intent.Total.StringFixed(2))
		assert.Equal(t, PaymentMethodDebit, intent.Method())
		assert.Empty(t, intent.CustomerID)
		require.Len(t, intent.Lines, 2)
		assert.Equal(t, "1", intent.Lines[0].ProductID)
		assert.True(t, intent.Lines[1].Quantity.Equal(qty("0.25")))
		assert.Equal(t, "10.00", intent.Lines[1].UnitPrice.StringFixed(2))
	})

	t.Run("carries customer id for on-account sales", func(t *testing.T) {
		cart := NewCart()
		_, _ = cart.Add(discreteProduct("1", 2.50, 10), qty("1"))

		intent, err := NewSaleIntent("store-1", cart, OnAccountPayment{Customer: partner.CustomerSnapshot{ID: "c1"}})
		require.NoError(t, err)
		assert.Equal(t, "c1", intent.CustomerID)
	})

	t.Run("rejects empty cart", func(t *testing.T) {
		_, err := NewSaleIntent("store-1", NewCart(), CashPayment{})
		assert.ErrorIs(t, err, shared.ErrEmptyCart)
	})

	t.Run("rejects missing payment", func(t *testing.T) {
		cart := NewCart()
		_, _ = cart.Add(discreteProduct("1", 1, 1), qty("1"))
		_, err := NewSaleIntent("store-1", cart, nil)
		assert.ErrorIs(t, err, shared.ErrPaymentNotReady)
	})

	t.Run("rejects unresolved on-account customer", func(t *testing.T) {
		cart := NewCart()
		_, _ = cart.Add(discreteProduct("1", 1, 1), qty("1"))
		_, err := NewSaleIntent("store-1", cart, OnAccountPayment{})
		assert.ErrorIs(t, err, shared.ErrNoCustomerSelected)
	})

	t.Run("rejects empty store", func(t *testing.T) {
		cart := NewCart()
		_, _ = cart.Add(discreteProduct("1", 1, 1), qty("1"))
		_, err := NewSaleIntent(" ", cart, CashPayment{})
		assert.Error(t, err)
	})
}
