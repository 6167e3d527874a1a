package checkout

import (
	"testing"

	"github.com/mercearia/pdv/internal/domain/partner"
	"github.com/mercearia/pdv/internal/domain/shared"
	"github.com/mercearia/pdv/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSelector(total float64) *PaymentSelector {
	return NewPaymentSelector(brl(total), trade.DefaultPaymentMethods(), 2)
}

func TestPaymentSelector_CyclicNavigation(t *testing.T) {
	p := newSelector(10)
	assert.Equal(t, StateChoosingMethod, p.State())
	assert.Equal(t, trade.PaymentMethodCash, p.Highlighted())

	p.Prev()
	assert.Equal(t, trade.PaymentMethodOnAccount, p.Highlighted(), "up from the first entry wraps to the last")

	p.Next()
	assert.Equal(t, trade.PaymentMethodCash, p.Highlighted(), "down from the last entry wraps to the first")

	for range len(p.Methods()) {
		p.Next()
	}
	assert.Equal(t, 0, p.HighlightIndex())
}

func TestPaymentSelector_Cash(t *testing.T) {
	t.Run("pre-fills total and computes change", func(t *testing.T) {
		p := newSelector(47.50)
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodCash))

		assert.Equal(t, StateEnteringCashAmount, p.State())
		assert.Equal(t, "47,50", p.CashInput())
		assert.True(t, p.Change().IsZero())

		p.SetCashInput("50,00")
		assert.Equal(t, "2.50", p.Change().StringFixed(2))

		require.NoError(t, p.ConfirmCash())
		assert.Equal(t, StateReady, p.State())

		cash, ok := p.Selection().(trade.CashPayment)
		require.True(t, ok)
		assert.Equal(t, "50.00", cash.Received.StringFixed(2))
		assert.Equal(t, "2.50", cash.Change.StringFixed(2))
	})

	t.Run("insufficient amount is rejected and stays in cash input", func(t *testing.T) {
		p := newSelector(47.50)
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodCash))

		p.SetCashInput("40,00")
		assert.True(t, p.Change().IsZero())

		err := p.ConfirmCash()
		assert.ErrorIs(t, err, shared.ErrInsufficientCash)
		assert.Equal(t, StateEnteringCashAmount, p.State())
		assert.Nil(t, p.Selection())
	})

	t.Run("unparseable amount counts as zero", func(t *testing.T) {
		p := newSelector(5)
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodCash))
		p.SetCashInput("")
		assert.True(t, p.Received().IsZero())
		assert.ErrorIs(t, p.ConfirmCash(), shared.ErrInsufficientCash)
	})

	t.Run("switching away and back resets the received amount", func(t *testing.T) {
		p := newSelector(47.50)
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodCash))
		p.SetCashInput("100")

		require.True(t, p.Back())
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodPix))
		require.True(t, p.Back())
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodCash))

		assert.Equal(t, "47,50", p.CashInput())
		assert.True(t, p.Change().IsZero())
	})
}

func TestPaymentSelector_CardAndElectronic(t *testing.T) {
	p := newSelector(10)
	p.Next()
	p.Next()
	require.NoError(t, p.Choose())

	assert.Equal(t, StateReady, p.State())
	assert.Equal(t, trade.CardPayment{Kind: trade.PaymentMethodDebit}, p.Selection())

	require.True(t, p.Back())
	require.NoError(t, p.ChooseMethod(trade.PaymentMethodPix))
	assert.Equal(t, trade.ElectronicPayment{Kind: trade.PaymentMethodPix}, p.Selection())
}

func TestPaymentSelector_OnAccount(t *testing.T) {
	t.Run("confirm without customer is rejected", func(t *testing.T) {
		p := newSelector(30)
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodOnAccount))
		assert.Equal(t, StateMethodChosen, p.State())
		assert.True(t, p.AwaitingCustomer())

		assert.ErrorIs(t, p.ConfirmCustomer(), shared.ErrNoCustomerSelected)
		assert.Equal(t, StateMethodChosen, p.State())
	})

	t.Run("within limit reaches ready", func(t *testing.T) {
		p := newSelector(30)
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodOnAccount))
		p.ResolveCustomer(customer("c1", "Maria", 50, 120))

		assert.Equal(t, "80.00", p.ProjectedBalance().StringFixed(2))
		require.NoError(t, p.ConfirmCustomer())
		assert.Equal(t, StateReady, p.State())
		assert.Equal(t, "c1", trade.CustomerIDOf(p.Selection()))
	})

	t.Run("over the limit requires override", func(t *testing.T) {
		p := newSelector(30)
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodOnAccount))
		p.ResolveCustomer(customer("c1", "Maria", 100, 120))

		assert.Equal(t, "130.00", p.ProjectedBalance().StringFixed(2))
		assert.True(t, p.ExceedsCreditLimit())

		err := p.ConfirmCustomer()
		assert.ErrorIs(t, err, shared.ErrCreditLimitExceeded)
		assert.True(t, p.OverridePending())
		assert.NotEqual(t, StateReady, p.State())

		p.DeclineOverride()
		assert.False(t, p.OverridePending())
		assert.Equal(t, StateMethodChosen, p.State())

		assert.ErrorIs(t, p.ConfirmCustomer(), shared.ErrCreditLimitExceeded)
		require.NoError(t, p.AcceptOverride())
		assert.Equal(t, StateReady, p.State())
	})

	t.Run("zero limit means unlimited", func(t *testing.T) {
		p := newSelector(3000)
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodOnAccount))
		p.ResolveCustomer(customer("c1", "Maria", 100, 0))
		require.NoError(t, p.ConfirmCustomer())
	})

	t.Run("switching away discards the customer", func(t *testing.T) {
		p := newSelector(30)
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodOnAccount))
		p.ResolveCustomer(customer("c1", "Maria", 0, 0))

		require.True(t, p.Back())
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodCash))
		require.True(t, p.Back())
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodOnAccount))

		_, ok := p.Customer()
		assert.False(t, ok)
		assert.ErrorIs(t, p.ConfirmCustomer(), shared.ErrNoCustomerSelected)
	})

	t.Run("customer search selects highlighted result", func(t *testing.T) {
		p := newSelector(30)
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodOnAccount))

		req, ok := p.SetCustomerQuery("ma")
		require.True(t, ok)
		p.Customers().Resolve(req.Generation, []partner.CustomerSnapshot{
			customer("c1", "Maria", 0, 0),
			customer("c2", "Marcos", 0, 0),
		}, nil)
		p.Customers().Next()

		require.True(t, p.SelectCustomer())
		c, ok := p.Customer()
		require.True(t, ok)
		assert.Equal(t, "c2", c.ID)
		assert.Empty(t, p.Customers().Query())

		_, ok = p.SetCustomerQuery("jo")
		assert.False(t, ok, "search is closed while a customer is resolved")
	})

	t.Run("change customer reopens the search", func(t *testing.T) {
		p := newSelector(30)
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodOnAccount))
		p.ResolveCustomer(customer("c1", "Maria", 0, 0))
		require.NoError(t, p.ConfirmCustomer())

		p.ChangeCustomer()
		assert.Equal(t, StateMethodChosen, p.State())
		assert.Nil(t, p.Selection())
		_, ok := p.SetCustomerQuery("jo")
		assert.True(t, ok)
	})

	t.Run("registration form", func(t *testing.T) {
		p := newSelector(30)
		assert.False(t, p.StartRegistration())

		require.NoError(t, p.ChooseMethod(trade.PaymentMethodOnAccount))
		require.True(t, p.StartRegistration())
		assert.True(t, p.Registering())

		p.ResolveCustomer(customer("c9", "Novo", 0, 0))
		assert.False(t, p.Registering())
	})
}

func TestPaymentSelector_Confirm(t *testing.T) {
	t.Run("only from ready", func(t *testing.T) {
		p := newSelector(10)
		_, err := p.Confirm()
		assert.ErrorIs(t, err, shared.ErrPaymentNotReady)

		require.NoError(t, p.ChooseMethod(trade.PaymentMethodCash))
		_, err = p.Confirm()
		assert.ErrorIs(t, err, shared.ErrPaymentNotReady)
	})

	t.Run("confirmed selector is frozen until unconfirmed", func(t *testing.T) {
		p := newSelector(10)
		require.NoError(t, p.ChooseMethod(trade.PaymentMethodCredit))

		sel, err := p.Confirm()
		require.NoError(t, err)
		assert.Equal(t, trade.PaymentMethodCredit, sel.Method())
		assert.Equal(t, StateConfirmed, p.State())

		assert.False(t, p.Back())
		assert.ErrorIs(t, p.ChooseMethod(trade.PaymentMethodCash), shared.ErrInvalidState)

		p.Unconfirm()
		assert.Equal(t, StateReady, p.State())
		assert.NotNil(t, p.Selection())
	})

	t.Run("unknown method", func(t *testing.T) {
		p := NewPaymentSelector(brl(10), []trade.PaymentMethod{trade.PaymentMethodCash}, 2)
		assert.Error(t, p.ChooseMethod(trade.PaymentMethodPix))
	})
}
