package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mercearia/pdv/internal/application/lookup"
	"github.com/mercearia/pdv/internal/domain/catalog"
	"github.com/mercearia/pdv/internal/domain/partner"
	"github.com/mercearia/pdv/internal/domain/shared"
	"github.com/mercearia/pdv/internal/domain/shared/valueobject"
	"github.com/mercearia/pdv/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NoticeLevel is the severity of a notice
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeError
)

// Notice is a transient, auto-expiring message to the operator
type Notice struct {
	ID    uuid.UUID
	Level NoticeLevel
	Message
}

// Options tune a checkout session
type Options struct {
	Debounce          time.Duration
	MinQueryLength    int
	NoticeTTL         time.Duration
	FailureNoticeTTL  time.Duration
	ContinuousDefault decimal.Decimal // pre-filled quantity for weighed products
	Methods           []trade.PaymentMethod
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Debounce:          300 * time.Millisecond,
		MinQueryLength:    lookup.DefaultMinQueryLength,
		NoticeTTL:         3 * time.Second,
		FailureNoticeTTL:  4 * time.Second,
		ContinuousDefault: decimal.NewFromInt(1),
		Methods:           trade.DefaultPaymentMethods(),
	}
}

// Recorder receives checkout measurements
type Recorder interface {
	SaleCommitted(ctx context.Context, method string, amount float64)
	SaleFailed(ctx context.Context, method string)
	StockRejected(ctx context.Context, productID string)
	StaleDiscarded(ctx context.Context, target string)
}

type nopRecorder struct{}

func (nopRecorder) SaleCommitted(context.Context, string, float64) {}
func (nopRecorder) SaleFailed(context.Context, string)             {}
func (nopRecorder) StockRejected(context.Context, string)          {}
func (nopRecorder) StaleDiscarded(context.Context, string)         {}

// overlay is the modal open over the search: a *QuantityPrompt or a
// *PaymentSelector. Holding both in one field keeps them exclusive.
type overlay interface {
	isOverlay()
}

// SessionOption is a functional option for configuring a Session
type SessionOption func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRecorder sets the measurement sink
func WithRecorder(recorder Recorder) SessionOption {
	return func(s *Session) {
		s.recorder = recorder
	}
}

// Session is one checkout: search, cart, quantity prompt, payment and commit.
type Session struct {
	storeID  string
	opts     Options
	logger   *zap.Logger
	recorder Recorder

	cart     *trade.Cart
	products *lookup.Lookup[catalog.ProductSnapshot]
	overlay  overlay

	// retained keeps the payment of a failed commit so it can be retried
	retained *PaymentSelector

	finalizeArmed   bool
	inFlight        bool
	registerPending bool
	notice          *Notice
	closed          bool
}

// NewSession starts an empty checkout for storeID
func NewSession(storeID string, opts Options, sessionOpts ...SessionOption) *Session {
	if len(opts.Methods) == 0 {
		opts.Methods = trade.DefaultPaymentMethods()
	}
	s := &Session{
		storeID:  storeID,
		opts:     opts,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		cart:     trade.NewCart(),
		products: lookup.New[catalog.ProductSnapshot](opts.MinQueryLength),
	}
	for _, opt := range sessionOpts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("store_id", storeID))
	return s
}

// StoreID returns the store the session sells for
func (s *Session) StoreID() string {
	return s.storeID
}

// Phase returns the current checkout phase
func (s *Session) Phase() Phase {
	switch o := s.overlay.(type) {
	case *QuantityPrompt:
		return PhaseQuantifying
	case *PaymentSelector:
		if s.inFlight {
			return PhaseCommitting
		}
		switch o.State() {
		case StateChoosingMethod:
			return PhaseChoosingPayment
		case StateEnteringCashAmount:
			return PhaseAwaitingCashInput
		case StateMethodChosen:
			return PhaseAwaitingCustomer
		default:
			return PhaseReady
		}
	}
	if !s.products.IsBlank() {
		return PhaseSearching
	}
	return PhaseIdle
}

// Focus returns the control that owns the keyboard
func (s *Session) Focus() Focus {
	st := FocusState{Phase: s.Phase(), FinalizeArmed: s.finalizeArmed}
	if sel, ok := s.overlay.(*PaymentSelector); ok {
		_, st.CustomerResolved = sel.Customer()
		st.OverridePending = sel.OverridePending()
		st.Registering = sel.Registering()
	}
	return FocusFor(st)
}

// Lines returns the cart lines in insertion order
func (s *Session) Lines() []trade.CartLine {
	return s.cart.Lines()
}

// Total returns the running cart total
func (s *Session) Total() valueobject.Money {
	return s.cart.Total()
}

// CartEmpty reports whether the cart has no lines
func (s *Session) CartEmpty() bool {
	return s.cart.IsEmpty()
}

// Products returns the product search
func (s *Session) Products() *lookup.Lookup[catalog.ProductSnapshot] {
	return s.products
}

// Prompt returns the open quantity prompt
func (s *Session) Prompt() (*QuantityPrompt, bool) {
	p, ok := s.overlay.(*QuantityPrompt)
	return p, ok
}

// Payment returns the open payment selector
func (s *Session) Payment() (*PaymentSelector, bool) {
	p, ok := s.overlay.(*PaymentSelector)
	return p, ok
}

// Notice returns the notice on display
func (s *Session) Notice() (Notice, bool) {
	if s.notice == nil {
		return Notice{}, false
	}
	return *s.notice, true
}

// InFlight reports whether a commit request is awaiting its response
func (s *Session) InFlight() bool {
	return s.inFlight
}

// RegistrationPending reports whether a customer registration is awaiting its response
func (s *Session) RegistrationPending() bool {
	return s.registerPending
}

// CanFinalize reports whether the payment flow may be opened
func (s *Session) CanFinalize() bool {
	return !s.closed && !s.inFlight && !s.cart.IsEmpty()
}

// Close disposes the session. Results arriving afterwards are ignored.
func (s *Session) Close() {
	s.closed = true
	s.notice = nil
}

// --- product search ---

// SetSearchQuery records a keystroke in the product search
func (s *Session) SetSearchQuery(query string) []Effect {
	if s.closed || s.overlay != nil {
		return nil
	}
	s.finalizeArmed = false
	req, ok := s.products.SetQuery(query)
	if !ok {
		return nil
	}
	return []Effect{ScheduleDebounce{Target: SearchProducts, Generation: req.Generation, Delay: s.opts.Debounce}}
}

// SearchNext moves the product highlight down
func (s *Session) SearchNext() {
	if s.overlay == nil {
		s.products.Next()
	}
}

// SearchPrev moves the product highlight up
func (s *Session) SearchPrev() {
	if s.overlay == nil {
		s.products.Prev()
	}
}

// HoverProduct highlights the product at index
func (s *Session) HoverProduct(index int) {
	if s.overlay == nil {
		s.products.SetHighlight(index)
	}
}

// SearchEnter handles Enter in the search input. On an empty search with a
// non-empty cart it moves focus to the finalize action; otherwise it selects
// the highlighted product.
func (s *Session) SearchEnter() ([]Effect, error) {
	if s.closed || s.overlay != nil {
		return nil, nil
	}
	if s.products.IsBlank() {
		s.finalizeArmed = !s.cart.IsEmpty()
		return nil, nil
	}
	index := s.products.HighlightIndex()
	if index < 0 {
		return nil, nil
	}
	return s.SelectProduct(index)
}

// SearchEscape clears the product search
func (s *Session) SearchEscape() {
	if s.overlay != nil {
		return
	}
	s.finalizeArmed = false
	s.products.Clear()
}

// FocusSearch returns focus from the finalize action to the search input
func (s *Session) FocusSearch() {
	s.finalizeArmed = false
}

// SelectProduct picks the search result at index and opens the quantity
// prompt. Products without stock, or discrete products whose whole stock is
// already in the cart, are rejected without opening the prompt.
func (s *Session) SelectProduct(index int) ([]Effect, error) {
	if s.closed || s.overlay != nil {
		return nil, shared.ErrInvalidState
	}
	results := s.products.Results()
	if index < 0 || index >= len(results) {
		return nil, shared.ErrInvalidState
	}
	product := results[index]
	s.products.Clear()

	if product.IsOutOfStock() {
		s.recorder.StockRejected(context.Background(), product.ID)
		return s.notify(NoticeError, NewMessage(MsgOutOfStock, product.Name)), shared.ErrOutOfStock
	}
	if !product.Unit.IsContinuous() {
		if err := s.cart.CheckStock(product, catalog.MinimumQuantityFor(product.Unit), trade.NoLine); err != nil {
			s.recorder.StockRejected(context.Background(), product.ID)
			return s.notify(NoticeError, NewMessage(MsgStockCeilingReached, product.Name)), err
		}
	}

	s.overlay = NewAddPrompt(product, s.opts.ContinuousDefault)
	return nil, nil
}

// --- quantity prompt ---

// SetQuantityInput records the typed quantity
func (s *Session) SetQuantityInput(input string) {
	if p, ok := s.Prompt(); ok {
		p.SetInput(input)
	}
}

// SubmitQuantity applies the prompt to the cart. A stock rejection closes the
// prompt and leaves the cart unchanged; an invalid quantity keeps it open.
func (s *Session) SubmitQuantity() ([]Effect, error) {
	p, ok := s.Prompt()
	if !ok {
		return nil, shared.ErrInvalidState
	}
	if p.Mode() == PromptEditing && !p.Quantity().IsPositive() {
		s.overlay = nil
		return nil, nil
	}

	index, err := p.Submit(s.cart)
	if err == nil {
		s.overlay = nil
		s.logger.Debug("cart updated",
			zap.String("product_id", p.Product().ID),
			zap.String("mode", p.Mode().String()),
			zap.Int("line", index),
			zap.String("total", s.cart.Total().StringFixed(2)),
		)
		return nil, nil
	}

	var stockErr *trade.StockExceededError
	if errors.As(err, &stockErr) {
		s.overlay = nil
		s.recorder.StockRejected(context.Background(), stockErr.ProductID)
	}
	return s.notify(NoticeError, localFailureMessage(err)), err
}

// CancelQuantity closes the prompt without touching the cart
func (s *Session) CancelQuantity() {
	if _, ok := s.Prompt(); ok {
		s.overlay = nil
	}
}

// --- cart lines ---

// EditLine opens the quantity prompt on the line at index
func (s *Session) EditLine(index int) error {
	if s.closed || s.overlay != nil {
		return shared.ErrInvalidState
	}
	line, err := s.cart.Line(index)
	if err != nil {
		return err
	}
	s.finalizeArmed = false
	s.overlay = NewEditPrompt(index, line)
	return nil
}

// RemoveLine deletes the line at index and returns focus to the search
func (s *Session) RemoveLine(index int) error {
	if s.closed || s.overlay != nil {
		return shared.ErrInvalidState
	}
	if err := s.cart.Remove(index); err != nil {
		return err
	}
	s.finalizeArmed = false
	return nil
}

// --- payment ---

// OpenPayment opens the payment flow for the cart total. After a failed
// commit the previous payment is offered again if the total is unchanged.
func (s *Session) OpenPayment() ([]Effect, error) {
	if s.inFlight {
		return nil, shared.ErrCommitInFlight
	}
	if s.closed || s.overlay != nil {
		return nil, shared.ErrInvalidState
	}
	if s.cart.IsEmpty() {
		return s.notify(NoticeError, NewMessage(MsgEmptyCart)), shared.ErrEmptyCart
	}

	s.finalizeArmed = false
	total := s.cart.Total()
	if s.retained != nil && s.retained.Total().Equals(total) {
		s.overlay = s.retained
	} else {
		s.overlay = NewPaymentSelector(total, s.opts.Methods, s.opts.MinQueryLength)
	}
	s.retained = nil
	return nil, nil
}

// editablePayment returns the selector when the operator may change it
func (s *Session) editablePayment() (*PaymentSelector, bool) {
	sel, ok := s.Payment()
	if !ok || s.inFlight {
		return nil, false
	}
	return sel, true
}

// PaymentNext highlights the next payment method
func (s *Session) PaymentNext() {
	if sel, ok := s.editablePayment(); ok {
		sel.Next()
	}
}

// PaymentPrev highlights the previous payment method
func (s *Session) PaymentPrev() {
	if sel, ok := s.editablePayment(); ok {
		sel.Prev()
	}
}

// HoverPayment highlights the payment method at index
func (s *Session) HoverPayment(index int) {
	if sel, ok := s.editablePayment(); ok {
		sel.HighlightMethod(index)
	}
}

// ChoosePayment confirms the highlighted payment method
func (s *Session) ChoosePayment() error {
	sel, ok := s.editablePayment()
	if !ok {
		return shared.ErrInvalidState
	}
	return sel.Choose()
}

// ChoosePaymentMethod jumps straight to the sub-flow of method
func (s *Session) ChoosePaymentMethod(method trade.PaymentMethod) error {
	sel, ok := s.editablePayment()
	if !ok {
		return shared.ErrInvalidState
	}
	return sel.ChooseMethod(method)
}

// SetCashInput records the typed received amount
func (s *Session) SetCashInput(input string) {
	if sel, ok := s.editablePayment(); ok {
		sel.SetCashInput(input)
	}
}

// ConfirmCash accepts the received amount
func (s *Session) ConfirmCash() ([]Effect, error) {
	sel, ok := s.editablePayment()
	if !ok {
		return nil, shared.ErrInvalidState
	}
	if err := sel.ConfirmCash(); err != nil {
		return s.notify(NoticeError, localFailureMessage(err)), err
	}
	return nil, nil
}

// SetCustomerQuery records a keystroke in the customer search
func (s *Session) SetCustomerQuery(query string) []Effect {
	sel, ok := s.editablePayment()
	if !ok {
		return nil
	}
	req, ok := sel.SetCustomerQuery(query)
	if !ok {
		return nil
	}
	return []Effect{ScheduleDebounce{Target: SearchCustomers, Generation: req.Generation, Delay: s.opts.Debounce}}
}

// CustomerNext moves the customer highlight down
func (s *Session) CustomerNext() {
	if sel, ok := s.editablePayment(); ok {
		sel.Customers().Next()
	}
}

// CustomerPrev moves the customer highlight up
func (s *Session) CustomerPrev() {
	if sel, ok := s.editablePayment(); ok {
		sel.Customers().Prev()
	}
}

// SelectCustomer resolves the highlighted customer
func (s *Session) SelectCustomer() bool {
	sel, ok := s.editablePayment()
	if !ok {
		return false
	}
	return sel.SelectCustomer()
}

// ConfirmCustomer accepts the resolved customer. ErrCreditLimitExceeded means
// the override question is now on screen.
func (s *Session) ConfirmCustomer() ([]Effect, error) {
	sel, ok := s.editablePayment()
	if !ok {
		return nil, shared.ErrInvalidState
	}
	err := sel.ConfirmCustomer()
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, shared.ErrCreditLimitExceeded):
		c, _ := sel.Customer()
		s.logger.Info("credit limit override requested",
			zap.String("customer_id", c.ID),
			zap.String("projected_balance", sel.ProjectedBalance().StringFixed(2)),
			zap.String("credit_limit", c.CreditLimit.StringFixed(2)),
		)
		return nil, err
	default:
		return s.notify(NoticeError, localFailureMessage(err)), err
	}
}

// AcceptCreditOverride lets the on-account sale exceed the credit limit
func (s *Session) AcceptCreditOverride() error {
	sel, ok := s.editablePayment()
	if !ok {
		return shared.ErrInvalidState
	}
	return sel.AcceptOverride()
}

// DeclineCreditOverride dismisses the override question
func (s *Session) DeclineCreditOverride() {
	if sel, ok := s.editablePayment(); ok {
		sel.DeclineOverride()
	}
}

// ChangeCustomer drops the resolved customer and reopens the customer search
func (s *Session) ChangeCustomer() {
	if sel, ok := s.editablePayment(); ok {
		sel.ChangeCustomer()
	}
}

// OpenCustomerForm opens the quick registration form
func (s *Session) OpenCustomerForm() bool {
	sel, ok := s.editablePayment()
	if !ok {
		return false
	}
	return sel.StartRegistration()
}

// CancelCustomerForm closes the quick registration form
func (s *Session) CancelCustomerForm() {
	if sel, ok := s.editablePayment(); ok {
		sel.CancelRegistration()
	}
}

// SubmitCustomerForm validates the form and requests the registration
func (s *Session) SubmitCustomerForm(name, phone, creditLimit string) ([]Effect, error) {
	sel, ok := s.editablePayment()
	if !ok || !sel.Registering() || s.registerPending {
		return nil, shared.ErrInvalidState
	}
	draft, err := partner.NewCustomerDraft(name, phone, creditLimit)
	if err != nil {
		return s.notify(NoticeError, localFailureMessage(err)), err
	}
	s.registerPending = true
	return []Effect{RegisterCustomer{StoreID: s.storeID, Draft: draft}}, nil
}

// PaymentBack steps back inside the payment flow, closing it from the method list
func (s *Session) PaymentBack() {
	sel, ok := s.editablePayment()
	if !ok {
		return
	}
	if !sel.Back() {
		s.overlay = nil
	}
}

// ClosePayment closes the payment flow, discarding the selection
func (s *Session) ClosePayment() {
	if _, ok := s.editablePayment(); ok {
		s.overlay = nil
	}
}

// --- commit ---

// Commit confirms the Ready payment and issues the single commit request.
// While the request is in flight every further Commit is refused.
func (s *Session) Commit() ([]Effect, error) {
	if s.inFlight {
		return nil, shared.ErrCommitInFlight
	}
	if s.closed {
		return nil, shared.ErrInvalidState
	}
	if s.cart.IsEmpty() {
		return s.notify(NoticeError, NewMessage(MsgEmptyCart)), shared.ErrEmptyCart
	}
	sel, ok := s.Payment()
	if !ok {
		return nil, shared.ErrPaymentNotReady
	}

	selection, err := sel.Confirm()
	if err != nil {
		return nil, err
	}
	intent, err := trade.NewSaleIntent(s.storeID, s.cart, selection)
	if err != nil {
		sel.Unconfirm()
		return s.notify(NoticeError, localFailureMessage(err)), err
	}

	s.inFlight = true
	s.logger.Info("committing sale",
		zap.String("payment_method", intent.Method().String()),
		zap.String("total", intent.Total.StringFixed(2)),
		zap.Int("lines", len(intent.Lines)),
	)
	return []Effect{SubmitSale{Intent: intent}}, nil
}

// --- results ---

// Apply feeds the result of an effect back into the session and returns any
// follow-up effects. Results from superseded searches are discarded.
func (s *Session) Apply(result Result) []Effect {
	if s.closed || result == nil {
		return nil
	}

	switch r := result.(type) {
	case DebounceElapsed:
		return s.debounceElapsed(r)
	case ProductsLoaded:
		if !s.products.Resolve(r.Generation, r.Products, r.Err) {
			s.discardStale(SearchProducts, r.Generation)
			return nil
		}
		if r.Err != nil {
			s.logger.Warn("product search failed", zap.Uint64("generation", r.Generation), zap.Error(r.Err))
		}
		return nil
	case CustomersLoaded:
		sel, ok := s.Payment()
		if !ok || !sel.Customers().Resolve(r.Generation, r.Customers, r.Err) {
			s.discardStale(SearchCustomers, r.Generation)
			return nil
		}
		if r.Err != nil {
			s.logger.Warn("customer search failed", zap.Uint64("generation", r.Generation), zap.Error(r.Err))
		}
		return nil
	case SaleSettled:
		return s.settle(r)
	case CustomerRegistered:
		return s.registered(r)
	case NoticeExpired:
		if s.notice != nil && s.notice.ID == r.ID {
			s.notice = nil
		}
		return nil
	}
	return nil
}

func (s *Session) debounceElapsed(r DebounceElapsed) []Effect {
	switch r.Target {
	case SearchProducts:
		req, ok := s.products.DebounceElapsed(r.Generation)
		if !ok {
			return nil
		}
		return []Effect{FetchProducts{StoreID: s.storeID, Generation: req.Generation, Query: req.Query}}
	case SearchCustomers:
		sel, ok := s.Payment()
		if !ok {
			return nil
		}
		req, ok := sel.Customers().DebounceElapsed(r.Generation)
		if !ok {
			return nil
		}
		return []Effect{FetchCustomers{StoreID: s.storeID, Generation: req.Generation, Query: req.Query}}
	}
	return nil
}

func (s *Session) discardStale(target SearchTarget, generation uint64) {
	s.recorder.StaleDiscarded(context.Background(), string(target))
	s.logger.Debug("discarded stale search response",
		zap.String("target", string(target)),
		zap.Uint64("generation", generation),
	)
}

func (s *Session) settle(r SaleSettled) []Effect {
	s.inFlight = false
	sel, _ := s.Payment()

	if r.Err != nil {
		s.logger.Warn("sale commit failed",
			zap.String("payment_method", r.Method.String()),
			zap.String("total", r.Total.StringFixed(2)),
			zap.Error(r.Err),
		)
		if sel != nil {
			sel.Unconfirm()
			s.retained = sel
		}
		s.overlay = nil
		return s.notify(NoticeError, CommitFailureMessage(r.Err))
	}

	s.logger.Info("sale committed",
		zap.String("payment_method", r.Method.String()),
		zap.String("total", r.Total.StringFixed(2)),
	)
	s.cart.Clear()
	s.overlay = nil
	s.retained = nil
	s.finalizeArmed = false
	s.products.Clear()
	return s.notify(NoticeSuccess, NewMessage(MsgSaleCompleted, r.Total.FormatBR()))
}

func (s *Session) registered(r CustomerRegistered) []Effect {
	s.registerPending = false
	if r.Err != nil {
		s.logger.Warn("customer registration failed", zap.Error(r.Err))
		return s.notify(NoticeError, NewMessage(MsgCustomerRegisterFail, registrationFailureText(r.Err)))
	}

	if sel, ok := s.Payment(); ok && sel.AwaitingCustomer() {
		sel.ResolveCustomer(r.Customer)
	}
	return s.notify(NoticeSuccess, NewMessage(MsgCustomerRegistered, r.Customer.Name))
}

func registrationFailureText(err error) string {
	var rejection ServerRejection
	if errors.As(err, &rejection) && rejection.ServerMessage() != "" {
		return rejection.ServerMessage()
	}
	return err.Error()
}

// notify replaces the notice on display and schedules its expiry
func (s *Session) notify(level NoticeLevel, msg Message) []Effect {
	ttl := s.opts.NoticeTTL
	if level == NoticeError {
		ttl = s.opts.FailureNoticeTTL
	}
	n := &Notice{ID: uuid.New(), Level: level, Message: msg}
	s.notice = n
	return []Effect{ExpireNotice{ID: n.ID, After: ttl}}
}
