package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mercearia/pdv/internal/domain/catalog"
	"github.com/mercearia/pdv/internal/domain/partner"
	"github.com/mercearia/pdv/internal/domain/shared"
	"github.com/mercearia/pdv/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRecorder is a mock implementation of Recorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) SaleCommitted(ctx context.Context, method string, amount float64) {
	m.Called(ctx, method, amount)
}

func (m *MockRecorder) SaleFailed(ctx context.Context, method string) {
	m.Called(ctx, method)
}

func (m *MockRecorder) StockRejected(ctx context.Context, productID string) {
	m.Called(ctx, productID)
}

func (m *MockRecorder) StaleDiscarded(ctx context.Context, target string) {
	m.Called(ctx, target)
}

type rejection struct{ msg string }

func (r rejection) Error() string         { return "backend rejected sale: " + r.msg }
func (r rejection) ServerMessage() string { return r.msg }

func newTestSession(opts ...SessionOption) *Session {
	return NewSession("store-1", DefaultOptions(), opts...)
}

// searchAndPick runs a full product search and selects the first result
func searchAndPick(t *testing.T, s *Session, query string, results ...catalog.ProductSnapshot) ([]Effect, error) {
	t.Helper()
	effects := s.SetSearchQuery(query)
	require.Len(t, effects, 1)
	debounce := effects[0].(ScheduleDebounce)

	fetch := s.Apply(DebounceElapsed{Target: SearchProducts, Generation: debounce.Generation})
	require.Len(t, fetch, 1)
	req := fetch[0].(FetchProducts)
	assert.Equal(t, "store-1", req.StoreID)

	s.Apply(ProductsLoaded{Generation: req.Generation, Products: results})
	return s.SearchEnter()
}

func addToCart(t *testing.T, s *Session, p catalog.ProductSnapshot, quantity string) error {
	t.Helper()
	_, err := searchAndPick(t, s, p.Name, p)
	if err != nil {
		return err
	}
	s.SetQuantityInput(quantity)
	_, err = s.SubmitQuantity()
	return err
}

func TestSession_SearchPipeline(t *testing.T) {
	s := newTestSession()
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Equal(t, FocusSearch, s.Focus())

	assert.Empty(t, s.SetSearchQuery("a"), "single character never reaches the backend")

	effects := s.SetSearchQuery("arroz")
	require.Len(t, effects, 1)
	debounce, ok := effects[0].(ScheduleDebounce)
	require.True(t, ok)
	assert.Equal(t, SearchProducts, debounce.Target)
	assert.Equal(t, 300*time.Millisecond, debounce.Delay)
	assert.Equal(t, PhaseSearching, s.Phase())

	fetch := s.Apply(DebounceElapsed{Target: SearchProducts, Generation: debounce.Generation})
	require.Len(t, fetch, 1)
	assert.Equal(t, "arroz", fetch[0].(FetchProducts).Query)

	s.Apply(ProductsLoaded{Generation: debounce.Generation, Products: []catalog.ProductSnapshot{
		unitProduct("1", "Arroz 5kg", 25, 10),
	}})
	assert.Len(t, s.Products().Results(), 1)

	_, err := s.SearchEnter()
	require.NoError(t, err)
	assert.Equal(t, PhaseQuantifying, s.Phase())
	assert.Equal(t, FocusQuantity, s.Focus())
	assert.True(t, s.Products().IsBlank(), "selecting clears the query")

	_, err = s.SubmitQuantity()
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Equal(t, FocusSearch, s.Focus())
	assert.Equal(t, "25.00", s.Total().StringFixed(2))
}

func TestSession_StaleResponsesDiscarded(t *testing.T) {
	rec := new(MockRecorder)
	rec.On("StaleDiscarded", mock.Anything, "products").Once()
	s := newTestSession(WithRecorder(rec))

	first := s.SetSearchQuery("fe")[0].(ScheduleDebounce)
	second := s.SetSearchQuery("fei")[0].(ScheduleDebounce)

	assert.Empty(t, s.Apply(DebounceElapsed{Target: SearchProducts, Generation: first.Generation}))
	require.Len(t, s.Apply(DebounceElapsed{Target: SearchProducts, Generation: second.Generation}), 1)

	s.Apply(ProductsLoaded{Generation: second.Generation, Products: []catalog.ProductSnapshot{unitProduct("1", "Feijao", 8, 3)}})
	s.Apply(ProductsLoaded{Generation: first.Generation, Products: []catalog.ProductSnapshot{unitProduct("2", "Ferro", 8, 3)}})

	require.Len(t, s.Products().Results(), 1)
	assert.Equal(t, "1", s.Products().Results()[0].ID)
	rec.AssertExpectations(t)
}

func TestSession_SearchFailureIsNotFatal(t *testing.T) {
	s := newTestSession()
	_ = addToCart(t, s, unitProduct("1", "Leite", 5, 10), "2")

	d := s.SetSearchQuery("pao")[0].(ScheduleDebounce)
	s.Apply(DebounceElapsed{Target: SearchProducts, Generation: d.Generation})
	s.Apply(ProductsLoaded{Generation: d.Generation, Err: errors.New("timeout")})

	assert.Empty(t, s.Products().Results())
	assert.True(t, s.Products().Failed())
	assert.Equal(t, 1, len(s.Lines()), "cart untouched by a failed search")
}

func TestSession_EmptyCartBlocksCommit(t *testing.T) {
	s := newTestSession()
	assert.False(t, s.CanFinalize())

	effects, err := s.OpenPayment()
	assert.ErrorIs(t, err, shared.ErrEmptyCart)
	require.Len(t, effects, 1)
	assert.IsType(t, ExpireNotice{}, effects[0])

	_, err = s.Commit()
	assert.ErrorIs(t, err, shared.ErrEmptyCart)
	assert.False(t, s.InFlight())
}

func TestSession_StockExceeded(t *testing.T) {
	rec := new(MockRecorder)
	rec.On("StockRejected", mock.Anything, "1").Once()
	s := newTestSession(WithRecorder(rec))
	p := unitProduct("1", "Cafe", 12, 5)

	require.NoError(t, addToCart(t, s, p, "3"))

	err := addToCart(t, s, p, "3")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStockExceeded)

	assert.Equal(t, PhaseIdle, s.Phase(), "prompt closes on stock rejection")
	assert.Equal(t, FocusSearch, s.Focus())
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Quantity.Equal(dec("3")))

	n, ok := s.Notice()
	require.True(t, ok)
	assert.Equal(t, NoticeError, n.Level)
	assert.Equal(t, MsgStockExceeded, n.Key)
	assert.Equal(t, []any{"2", "Cafe"}, n.Args)
	rec.AssertExpectations(t)
}

func TestSession_SelectRejections(t *testing.T) {
	t.Run("out of stock product never opens the prompt", func(t *testing.T) {
		s := newTestSession()
		_, err := searchAndPick(t, s, "sal", unitProduct("1", "Sal", 2, 0))
		assert.ErrorIs(t, err, shared.ErrOutOfStock)
		assert.Equal(t, PhaseIdle, s.Phase())

		n, ok := s.Notice()
		require.True(t, ok)
		assert.Equal(t, MsgOutOfStock, n.Key)
	})

	t.Run("discrete product already at its stock", func(t *testing.T) {
		s := newTestSession()
		p := unitProduct("1", "Oleo", 9, 2)
		require.NoError(t, addToCart(t, s, p, "2"))

		_, err := searchAndPick(t, s, "oleo", p)
		assert.ErrorIs(t, err, shared.ErrStockExceeded)
		assert.Equal(t, PhaseIdle, s.Phase())
		n, _ := s.Notice()
		assert.Equal(t, MsgStockCeilingReached, n.Key)
	})

	t.Run("invalid quantity keeps the prompt open", func(t *testing.T) {
		s := newTestSession()
		err := addToCart(t, s, unitProduct("1", "Ovo", 1, 30), "1,5")
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
		assert.Equal(t, PhaseQuantifying, s.Phase())

		s.CancelQuantity()
		assert.Equal(t, PhaseIdle, s.Phase())
		assert.True(t, s.CartEmpty())
	})
}

func TestSession_EditAndRemoveLines(t *testing.T) {
	s := newTestSession()
	require.NoError(t, addToCart(t, s, unitProduct("1", "Agua", 2, 10), "2"))
	require.NoError(t, addToCart(t, s, bulkProduct("2", "Tomate", 8, "5"), "0,500"))
	assert.Equal(t, "8.00", s.Total().StringFixed(2))

	require.NoError(t, s.EditLine(1))
	p, ok := s.Prompt()
	require.True(t, ok)
	assert.Equal(t, PromptEditing, p.Mode())
	assert.Equal(t, "0.500", p.Input())

	s.SetQuantityInput("1.250")
	_, err := s.SubmitQuantity()
	require.NoError(t, err)
	assert.Equal(t, "14.00", s.Total().StringFixed(2))

	require.NoError(t, s.EditLine(0))
	s.SetQuantityInput("0")
	_, err = s.SubmitQuantity()
	require.NoError(t, err, "a non-positive edit just closes the prompt")
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.True(t, s.Lines()[0].Quantity.Equal(dec("2")))

	require.NoError(t, s.RemoveLine(0))
	assert.Equal(t, "10.00", s.Total().StringFixed(2))
	assert.Equal(t, FocusSearch, s.Focus())
	assert.ErrorIs(t, s.RemoveLine(5), shared.ErrLineNotFound)
}

func TestSession_EnterOnEmptySearchArmsFinalize(t *testing.T) {
	s := newTestSession()
	_, _ = s.SearchEnter()
	assert.Equal(t, FocusSearch, s.Focus(), "nothing to finalize")

	require.NoError(t, addToCart(t, s, unitProduct("1", "Agua", 2, 10), "1"))
	_, _ = s.SearchEnter()
	assert.Equal(t, FocusFinalize, s.Focus())

	s.SetSearchQuery("x")
	assert.Equal(t, FocusSearch, s.Focus())
}

func TestSession_CashCommitSuccess(t *testing.T) {
	s := newTestSession()
	require.NoError(t, addToCart(t, s, unitProduct("1", "Carne", 47.50, 4), "1"))

	_, err := s.OpenPayment()
	require.NoError(t, err)
	assert.Equal(t, PhaseChoosingPayment, s.Phase())
	assert.Equal(t, FocusPaymentMethods, s.Focus())

	require.NoError(t, s.ChoosePayment())
	assert.Equal(t, PhaseAwaitingCashInput, s.Phase())

	s.SetCashInput("40,00")
	_, err = s.ConfirmCash()
	assert.ErrorIs(t, err, shared.ErrInsufficientCash)
	assert.Equal(t, PhaseAwaitingCashInput, s.Phase())

	s.SetCashInput("50,00")
	sel, _ := s.Payment()
	assert.Equal(t, "2.50", sel.Change().StringFixed(2))
	_, err = s.ConfirmCash()
	require.NoError(t, err)
	assert.Equal(t, PhaseReady, s.Phase())
	assert.Equal(t, FocusConfirm, s.Focus())

	effects, err := s.Commit()
	require.NoError(t, err)
	require.Len(t, effects, 1)
	submit := effects[0].(SubmitSale)
	assert.Equal(t, "47.50", submit.Intent.Total.StringFixed(2))
	assert.Equal(t, trade.PaymentMethodCash, submit.Intent.Method())
	assert.Equal(t, PhaseCommitting, s.Phase())
	assert.Equal(t, FocusNone, s.Focus())

	effects = s.Apply(SaleSettled{Total: submit.Intent.Total, Method: submit.Intent.Method()})
	require.Len(t, effects, 1)
	assert.True(t, s.CartEmpty())
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Equal(t, FocusSearch, s.Focus())

	n, ok := s.Notice()
	require.True(t, ok)
	assert.Equal(t, NoticeSuccess, n.Level)
	assert.Equal(t, []any{"R$ 47,50"}, n.Args)

	expire := effects[0].(ExpireNotice)
	assert.Equal(t, 3*time.Second, expire.After)
	s.Apply(NoticeExpired{ID: expire.ID})
	_, ok = s.Notice()
	assert.False(t, ok)
}

func TestSession_NoDuplicateCommit(t *testing.T) {
	s := newTestSession()
	require.NoError(t, addToCart(t, s, unitProduct("1", "Vinho", 30, 4), "1"))
	_, _ = s.OpenPayment()
	require.NoError(t, s.ChoosePaymentMethod(trade.PaymentMethodPix))

	effects, err := s.Commit()
	require.NoError(t, err)
	require.Len(t, effects, 1)

	for range 3 {
		effects, err = s.Commit()
		assert.ErrorIs(t, err, shared.ErrCommitInFlight)
		assert.Empty(t, effects)
	}
	_, err = s.OpenPayment()
	assert.ErrorIs(t, err, shared.ErrCommitInFlight)
	assert.False(t, s.CanFinalize())

	s.PaymentBack()
	s.ClosePayment()
	assert.Equal(t, PhaseCommitting, s.Phase(), "payment flow is locked while committing")
}

func TestSession_CommitFailureKeepsCartAndPayment(t *testing.T) {
	s := newTestSession()
	require.NoError(t, addToCart(t, s, unitProduct("1", "Vinho", 30, 4), "2"))
	_, _ = s.OpenPayment()
	require.NoError(t, s.ChoosePaymentMethod(trade.PaymentMethodCredit))

	effects, err := s.Commit()
	require.NoError(t, err)
	submit := effects[0].(SubmitSale)

	effects = s.Apply(SaleSettled{
		Total:  submit.Intent.Total,
		Method: submit.Intent.Method(),
		Err:    rejection{msg: "Caixa fechado"},
	})
	require.Len(t, effects, 1)
	assert.Equal(t, 4*time.Second, effects[0].(ExpireNotice).After)

	assert.False(t, s.InFlight())
	assert.Equal(t, PhaseIdle, s.Phase(), "payment flow closes")
	assert.Equal(t, "60.00", s.Total().StringFixed(2), "cart preserved")

	n, _ := s.Notice()
	assert.Equal(t, MsgSaleRejected, n.Key)
	assert.Equal(t, []any{"Caixa fechado"}, n.Args)

	_, err = s.OpenPayment()
	require.NoError(t, err)
	sel, _ := s.Payment()
	assert.Equal(t, StateReady, sel.State(), "previous payment is offered for retry")
	assert.Equal(t, trade.PaymentMethodCredit, sel.Selection().Method())

	effects, err = s.Commit()
	require.NoError(t, err)
	require.Len(t, effects, 1)
}

func TestSession_RetainedPaymentDroppedWhenTotalChanges(t *testing.T) {
	s := newTestSession()
	require.NoError(t, addToCart(t, s, unitProduct("1", "Vinho", 30, 4), "1"))
	_, _ = s.OpenPayment()
	require.NoError(t, s.ChoosePaymentMethod(trade.PaymentMethodPix))
	_, _ = s.Commit()
	s.Apply(SaleSettled{Err: errors.New("connection reset")})

	require.NoError(t, addToCart(t, s, unitProduct("1", "Vinho", 30, 4), "1"))
	_, err := s.OpenPayment()
	require.NoError(t, err)
	sel, _ := s.Payment()
	assert.Equal(t, StateChoosingMethod, sel.State())
	assert.Equal(t, "60.00", sel.Total().StringFixed(2))
}

func TestSession_OnAccountOverride(t *testing.T) {
	s := newTestSession()
	require.NoError(t, addToCart(t, s, unitProduct("1", "Racao", 30, 4), "1"))
	_, _ = s.OpenPayment()
	require.NoError(t, s.ChoosePaymentMethod(trade.PaymentMethodOnAccount))
	assert.Equal(t, PhaseAwaitingCustomer, s.Phase())
	assert.Equal(t, FocusCustomerSearch, s.Focus())

	_, err := s.ConfirmCustomer()
	assert.ErrorIs(t, err, shared.ErrNoCustomerSelected)

	d := s.SetCustomerQuery("jo")[0].(ScheduleDebounce)
	assert.Equal(t, SearchCustomers, d.Target)
	fetch := s.Apply(DebounceElapsed{Target: SearchCustomers, Generation: d.Generation})
	require.Len(t, fetch, 1)
	req := fetch[0].(FetchCustomers)
	assert.Equal(t, "jo", req.Query)

	s.Apply(CustomersLoaded{Generation: req.Generation, Customers: []partner.CustomerSnapshot{
		customer("c1", "Joana", 100, 120),
	}})
	require.True(t, s.SelectCustomer())
	assert.Equal(t, FocusConfirm, s.Focus())

	_, err = s.ConfirmCustomer()
	assert.ErrorIs(t, err, shared.ErrCreditLimitExceeded)
	assert.Equal(t, PhaseAwaitingCustomer, s.Phase())
	assert.Equal(t, FocusCreditOverride, s.Focus())

	_, err = s.Commit()
	assert.ErrorIs(t, err, shared.ErrPaymentNotReady)

	require.NoError(t, s.AcceptCreditOverride())
	assert.Equal(t, PhaseReady, s.Phase())

	effects, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, "c1", effects[0].(SubmitSale).Intent.CustomerID)
}

func TestSession_CustomerRegistration(t *testing.T) {
	s := newTestSession()
	require.NoError(t, addToCart(t, s, unitProduct("1", "Racao", 30, 4), "1"))
	_, _ = s.OpenPayment()
	require.NoError(t, s.ChoosePaymentMethod(trade.PaymentMethodOnAccount))

	require.True(t, s.OpenCustomerForm())
	assert.Equal(t, FocusCustomerForm, s.Focus())

	_, err := s.SubmitCustomerForm("  ", "", "")
	assert.ErrorIs(t, err, shared.ErrInvalidCustomerName)

	effects, err := s.SubmitCustomerForm("Pedro", "11 99999-0000", "200,00")
	require.NoError(t, err)
	require.Len(t, effects, 1)
	reg := effects[0].(RegisterCustomer)
	assert.Equal(t, "Pedro", reg.Draft.Name)
	assert.True(t, reg.Draft.CreditLimit.Equal(dec("200")))
	assert.True(t, s.RegistrationPending())

	_, err = s.SubmitCustomerForm("Pedro", "", "")
	assert.ErrorIs(t, err, shared.ErrInvalidState, "no duplicate registration while pending")

	s.Apply(CustomerRegistered{Customer: customer("c7", "Pedro", 0, 200)})
	assert.False(t, s.RegistrationPending())
	c, ok := func() (partner.CustomerSnapshot, bool) {
		sel, _ := s.Payment()
		return sel.Customer()
	}()
	require.True(t, ok)
	assert.Equal(t, "c7", c.ID)

	_, err = s.ConfirmCustomer()
	require.NoError(t, err)
	assert.Equal(t, PhaseReady, s.Phase())
}

func TestSession_LateCustomerResultsAfterPaymentClosed(t *testing.T) {
	rec := new(MockRecorder)
	rec.On("StaleDiscarded", mock.Anything, "customers").Once()
	s := newTestSession(WithRecorder(rec))
	require.NoError(t, addToCart(t, s, unitProduct("1", "Racao", 30, 4), "1"))
	_, _ = s.OpenPayment()
	require.NoError(t, s.ChoosePaymentMethod(trade.PaymentMethodOnAccount))
	d := s.SetCustomerQuery("jo")[0].(ScheduleDebounce)

	s.PaymentBack()
	s.PaymentBack()
	assert.Equal(t, PhaseIdle, s.Phase())

	assert.Empty(t, s.Apply(DebounceElapsed{Target: SearchCustomers, Generation: d.Generation}))
	s.Apply(CustomersLoaded{Generation: d.Generation})
	rec.AssertExpectations(t)
}

func TestSession_Close(t *testing.T) {
	s := newTestSession()
	d := s.SetSearchQuery("arroz")[0].(ScheduleDebounce)
	s.Close()

	assert.Empty(t, s.Apply(DebounceElapsed{Target: SearchProducts, Generation: d.Generation}))
	assert.Empty(t, s.SetSearchQuery("feijao"))
}
