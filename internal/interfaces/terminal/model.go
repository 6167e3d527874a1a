// Package terminal is the checkout screen. It is driven by the keyboard; the
// pointer can also highlight and pick search results and payment methods.
// It owns the event loop: keys become Session intents, effects run as tea commands and their
// results are applied back on the loop, so the Session is only ever touched
// from one goroutine.
package terminal

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mercearia/pdv/internal/application/checkout"
	"github.com/mercearia/pdv/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/text/message"
)

// Runner performs checkout effects. *checkout.Executor implements it.
type Runner interface {
	Run(ctx context.Context, effect checkout.Effect) checkout.Result
}

// resultMsg carries an effect result back to the event loop
type resultMsg struct {
	result checkout.Result
}

const (
	fieldName = iota
	fieldPhone
	fieldCreditLimit
	fieldCount
)

// customerForm is the quick registration form of the on-account flow
type customerForm struct {
	fields [fieldCount]string
	active int
}

// hitTarget names what a clickable screen row selects
type hitTarget int

const (
	hitProduct hitTarget = iota
	hitPaymentMethod
)

// hit is a clickable row of the last rendered screen
type hit struct {
	target hitTarget
	index  int
}

// Model is the Bubble Tea model of one checkout session
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	session *checkout.Session
	runner  Runner
	printer *message.Printer
	logger  *zap.Logger

	lineCursor int
	form       customerForm
	hits       map[int]hit // screen row -> entry, rebuilt by every View
	width      int
	quitting   bool
}

// Option configures a Model
type Option func(*Model)

// WithPrinter sets the printer used for screen text
func WithPrinter(p *message.Printer) Option {
	return func(m *Model) {
		if p != nil {
			m.printer = p
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewModel creates the screen for session. Effects run with a context
// derived from parent that is cancelled when the operator quits.
func NewModel(parent context.Context, session *checkout.Session, runner Runner, opts ...Option) *Model {
	m := &Model{
		session: session,
		runner:  runner,
		printer: NewPrinter("pt-BR"),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	ctx, log := logger.WithSessionID(parent, m.logger, uuid.NewString())
	m.logger = log
	m.ctx, m.cancel = context.WithCancel(ctx)
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case resultMsg:
		effects := m.session.Apply(msg.result)
		m.clampCursor()
		return m, m.run(effects)
	case tea.KeyMsg:
		if msg.String() == keyQuit {
			m.quit()
			return m, tea.Quit
		}
		focus := m.session.Focus()
		effects, err := m.handleKey(focus, msg)
		if err != nil {
			m.logger.Debug("intent refused",
				zap.String("focus", focus.String()),
				zap.String("key", msg.String()),
				zap.Error(err))
		}
		m.clampCursor()
		return m, m.run(effects)
	case tea.MouseMsg:
		effects, err := m.handleMouse(msg)
		if err != nil {
			m.logger.Debug("intent refused",
				zap.String("mouse", msg.String()),
				zap.Error(err))
		}
		return m, m.run(effects)
	}
	return m, nil
}

// Close disposes the session and cancels pending effects
func (m *Model) Close() {
	m.quit()
}

func (m *Model) quit() {
	if m.quitting {
		return
	}
	m.quitting = true
	m.session.Close()
	m.cancel()
}

// run turns effects into commands. Each command blocks off the loop and
// reports its result as a resultMsg.
func (m *Model) run(effects []checkout.Effect) tea.Cmd {
	if len(effects) == 0 {
		return nil
	}
	ctx, runner := m.ctx, m.runner
	cmds := make([]tea.Cmd, 0, len(effects))
	for _, eff := range effects {
		cmds = append(cmds, func() tea.Msg {
			if r := runner.Run(ctx, eff); r != nil {
				return resultMsg{result: r}
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(focus checkout.Focus, msg tea.KeyMsg) ([]checkout.Effect, error) {
	switch focus {
	case checkout.FocusSearch:
		return m.searchKey(msg)
	case checkout.FocusFinalize:
		return m.finalizeKey(msg)
	case checkout.FocusQuantity:
		return m.quantityKey(msg)
	case checkout.FocusPaymentMethods:
		return m.paymentMethodsKey(msg)
	case checkout.FocusCashInput:
		return m.cashKey(msg)
	case checkout.FocusCustomerSearch:
		return m.customerSearchKey(msg)
	case checkout.FocusCustomerForm:
		return m.customerFormKey(msg)
	case checkout.FocusCreditOverride:
		return m.creditOverrideKey(msg)
	case checkout.FocusConfirm:
		return m.confirmKey(msg)
	}
	// Committing: the keyboard is locked until the commit settles
	return nil, nil
}

func (m *Model) searchKey(msg tea.KeyMsg) ([]checkout.Effect, error) {
	s := m.session
	switch msg.String() {
	case keyUp:
		s.SearchPrev()
	case keyDown:
		s.SearchNext()
	case keyEnter:
		return s.SearchEnter()
	case keyEsc:
		s.SearchEscape()
	case keyFinalize:
		return s.OpenPayment()
	case keyLineUp:
		m.lineCursor--
	case keyLineDown:
		m.lineCursor++
	case keyEditLine:
		return nil, s.EditLine(m.lineCursor)
	case keyRemoveLine:
		return nil, s.RemoveLine(m.lineCursor)
	default:
		if q, ok := edit(s.Products().Query(), msg); ok {
			return s.SetSearchQuery(q), nil
		}
	}
	return nil, nil
}

func (m *Model) finalizeKey(msg tea.KeyMsg) ([]checkout.Effect, error) {
	switch msg.String() {
	case keyEnter, keyFinalize:
		return m.session.OpenPayment()
	case keyEsc, keyUp:
		m.session.FocusSearch()
		return nil, nil
	}
	m.session.FocusSearch()
	return m.searchKey(msg)
}

func (m *Model) quantityKey(msg tea.KeyMsg) ([]checkout.Effect, error) {
	switch msg.String() {
	case keyEnter:
		return m.session.SubmitQuantity()
	case keyEsc:
		m.session.CancelQuantity()
		return nil, nil
	}
	if p, ok := m.session.Prompt(); ok {
		if input, ok := edit(p.Input(), msg); ok {
			m.session.SetQuantityInput(input)
		}
	}
	return nil, nil
}

func (m *Model) paymentMethodsKey(msg tea.KeyMsg) ([]checkout.Effect, error) {
	s := m.session
	switch msg.String() {
	case keyUp:
		s.PaymentPrev()
	case keyDown:
		s.PaymentNext()
	case keyEnter:
		return nil, s.ChoosePayment()
	case keyEsc:
		s.PaymentBack()
	default:
		sel, ok := s.Payment()
		if i, isDigit := digit(msg); ok && isDigit && i < len(sel.Methods()) {
			return nil, s.ChoosePaymentMethod(sel.Methods()[i])
		}
	}
	return nil, nil
}

func (m *Model) cashKey(msg tea.KeyMsg) ([]checkout.Effect, error) {
	switch msg.String() {
	case keyEnter:
		return m.session.ConfirmCash()
	case keyEsc:
		m.session.PaymentBack()
		return nil, nil
	}
	if sel, ok := m.session.Payment(); ok {
		if input, ok := edit(sel.CashInput(), msg); ok {
			m.session.SetCashInput(input)
		}
	}
	return nil, nil
}

func (m *Model) customerSearchKey(msg tea.KeyMsg) ([]checkout.Effect, error) {
	s := m.session
	switch msg.String() {
	case keyUp:
		s.CustomerPrev()
	case keyDown:
		s.CustomerNext()
	case keyEnter:
		s.SelectCustomer()
	case keyNewCust:
		if s.OpenCustomerForm() {
			m.form = customerForm{}
		}
	case keyEsc:
		s.PaymentBack()
	default:
		if sel, ok := s.Payment(); ok {
			if q, ok := edit(sel.Customers().Query(), msg); ok {
				return s.SetCustomerQuery(q), nil
			}
		}
	}
	return nil, nil
}

func (m *Model) customerFormKey(msg tea.KeyMsg) ([]checkout.Effect, error) {
	switch msg.String() {
	case keyTab, keyDown:
		m.form.active = (m.form.active + 1) % fieldCount
	case keyShiftTab, keyUp:
		m.form.active = (m.form.active + fieldCount - 1) % fieldCount
	case keyEnter:
		f := m.form.fields
		return m.session.SubmitCustomerForm(f[fieldName], f[fieldPhone], f[fieldCreditLimit])
	case keyEsc:
		m.session.CancelCustomerForm()
	default:
		if v, ok := edit(m.form.fields[m.form.active], msg); ok {
			m.form.fields[m.form.active] = v
		}
	}
	return nil, nil
}

func (m *Model) creditOverrideKey(msg tea.KeyMsg) ([]checkout.Effect, error) {
	key := msg.String()
	switch {
	case acceptKeys[key]:
		return nil, m.session.AcceptCreditOverride()
	case declineKeys[key]:
		m.session.DeclineCreditOverride()
	}
	return nil, nil
}

func (m *Model) confirmKey(msg tea.KeyMsg) ([]checkout.Effect, error) {
	s := m.session
	switch msg.String() {
	case keyEnter:
		if s.Phase() == checkout.PhaseAwaitingCustomer {
			return s.ConfirmCustomer()
		}
		return s.Commit()
	case keyChangeCust:
		s.ChangeCustomer()
	case keyEsc:
		s.PaymentBack()
	}
	return nil, nil
}

// handleMouse highlights the search result or payment method under the
// pointer and selects it on a left click
func (m *Model) handleMouse(msg tea.MouseMsg) ([]checkout.Effect, error) {
	h, ok := m.hits[msg.Y]
	if !ok {
		return nil, nil
	}
	click := msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft
	if !click && msg.Action != tea.MouseActionMotion {
		return nil, nil
	}

	s := m.session
	switch h.target {
	case hitProduct:
		s.HoverProduct(h.index)
		if click {
			return s.SelectProduct(h.index)
		}
	case hitPaymentMethod:
		s.HoverPayment(h.index)
		if click {
			return nil, s.ChoosePayment()
		}
	}
	return nil, nil
}

// clampCursor keeps the cart cursor on an existing line
func (m *Model) clampCursor() {
	n := len(m.session.Lines())
	if m.lineCursor >= n {
		m.lineCursor = n - 1
	}
	if m.lineCursor < 0 {
		m.lineCursor = 0
	}
}
