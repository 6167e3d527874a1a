package terminal

import (
	"strings"

	"github.com/mercearia/pdv/internal/application/checkout"
	"github.com/mercearia/pdv/internal/domain/catalog"
	"github.com/mercearia/pdv/internal/domain/partner"
)

const (
	cursorMark = "> "
	blankMark  = "  "
)

// View implements tea.Model. Everything on screen is derived from the
// session; the only local state is the cart cursor and the registration form.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.session
	p := m.printer
	var b strings.Builder
	m.hits = make(map[int]hit)

	p.Fprintf(&b, labelTitle, s.StoreID())
	b.WriteString("\n\n")

	m.viewSearch(&b)
	b.WriteString("\n")
	m.viewCart(&b)

	switch {
	case s.Phase() == checkout.PhaseCommitting:
		b.WriteString("\n")
		p.Fprintf(&b, labelCommitting)
		b.WriteString("\n")
	case hasPrompt(s):
		b.WriteString("\n")
		m.viewPrompt(&b)
	case hasPayment(s):
		b.WriteString("\n")
		m.viewPayment(&b)
	}

	if n, ok := s.Notice(); ok {
		b.WriteString("\n")
		b.WriteString(noticePrefix(n.Level))
		p.Fprintf(&b, n.Key, n.Args...)
		b.WriteString("\n")
	}

	if help := helpFor(s.Focus(), s.Phase()); help != "" {
		b.WriteString("\n")
		p.Fprintf(&b, help)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) viewSearch(b *strings.Builder) {
	p := m.printer
	products := m.session.Products()

	mark := blankMark
	if m.session.Focus() == checkout.FocusSearch {
		mark = cursorMark
	}
	b.WriteString(mark)
	p.Fprintf(b, labelSearch)
	b.WriteString(": " + products.Query() + "\n")

	switch {
	case products.Loading():
		b.WriteString(blankMark)
		p.Fprintf(b, labelSearching)
		b.WriteString("\n")
	case products.Failed():
		b.WriteString(blankMark)
		p.Fprintf(b, labelSearchFailed)
		b.WriteString("\n")
	case products.NoMatches():
		b.WriteString(blankMark)
		p.Fprintf(b, labelNoMatches)
		b.WriteString("\n")
	}

	highlight := products.HighlightIndex()
	for i, product := range products.Results() {
		m.markRow(b, hitProduct, i)
		b.WriteString(blankMark)
		if i == highlight {
			b.WriteString(cursorMark)
		} else {
			b.WriteString(blankMark)
		}
		b.WriteString(product.Name + "  " + product.UnitPrice.FormatBR() + "/" + product.Unit.String() + "  ")
		p.Fprintf(b, labelStock, catalog.FormatQuantity(product.Unit, product.AvailableStock))
		b.WriteString("\n")
	}
}

func (m *Model) viewCart(b *strings.Builder) {
	s := m.session
	p := m.printer

	p.Fprintf(b, labelCart)
	b.WriteString("\n")
	lines := s.Lines()
	if len(lines) == 0 {
		b.WriteString(blankMark)
		p.Fprintf(b, labelCartEmpty)
		b.WriteString("\n")
	}
	for i, line := range lines {
		if i == m.lineCursor {
			b.WriteString(cursorMark)
		} else {
			b.WriteString(blankMark)
		}
		b.WriteString(catalog.FormatQuantity(line.Product.Unit, line.Quantity) + " " + line.Product.Unit.String() +
			"  " + line.Product.Name +
			"  x " + line.Product.UnitPrice.FormatBR() +
			"  = " + line.Subtotal().FormatBR() + "\n")
	}

	p.Fprintf(b, labelTotal, s.Total().FormatBR())
	b.WriteString("\n")
	if s.Focus() == checkout.FocusFinalize {
		b.WriteString(cursorMark)
		p.Fprintf(b, labelFinalize)
		b.WriteString("\n")
	}
}

func (m *Model) viewPrompt(b *strings.Builder) {
	prompt, _ := m.session.Prompt()
	p := m.printer
	product := prompt.Product()

	label := labelQuantityAdd
	if prompt.Mode() == checkout.PromptEditing {
		label = labelQuantityEdit
	}
	b.WriteString(cursorMark)
	p.Fprintf(b, label, product.Name, product.Unit.String())
	b.WriteString(": " + prompt.Input() + "\n" + blankMark)
	p.Fprintf(b, labelSubtotal, prompt.Subtotal().FormatBR())
	b.WriteString("\n")
}

func (m *Model) viewPayment(b *strings.Builder) {
	sel, _ := m.session.Payment()
	p := m.printer

	p.Fprintf(b, labelPayment, sel.Total().FormatBR())
	b.WriteString("\n")

	switch sel.State() {
	case checkout.StateChoosingMethod:
		for i, method := range sel.Methods() {
			m.markRow(b, hitPaymentMethod, i)
			if i == sel.HighlightIndex() {
				b.WriteString(cursorMark)
			} else {
				b.WriteString(blankMark)
			}
			b.WriteString(string(rune('1'+i)) + ". ")
			p.Fprintf(b, paymentLabels[method])
			b.WriteString("\n")
		}
	case checkout.StateEnteringCashAmount:
		b.WriteString(cursorMark)
		p.Fprintf(b, labelReceived)
		b.WriteString(": " + sel.CashInput() + "\n" + blankMark)
		p.Fprintf(b, labelChange, sel.Change().FormatBR())
		b.WriteString("\n")
	case checkout.StateMethodChosen:
		m.viewOnAccount(b, sel)
	case checkout.StateReady, checkout.StateConfirmed:
		if c, ok := sel.Customer(); ok {
			m.viewCustomer(b, c)
		}
		if sel.Method() == "" {
			break
		}
		b.WriteString(cursorMark)
		p.Fprintf(b, labelReady, p.Sprintf(paymentLabels[sel.Method()]))
		b.WriteString("\n")
	}
}

func (m *Model) viewOnAccount(b *strings.Builder, sel *checkout.PaymentSelector) {
	p := m.printer

	if sel.Registering() {
		m.viewCustomerForm(b)
		return
	}
	if c, ok := sel.Customer(); ok {
		m.viewCustomer(b, c)
		if sel.OverridePending() {
			p.Fprintf(b, checkout.MsgCreditLimitExceeded, c.Name, sel.ProjectedBalance().FormatBR(), c.CreditLimit.FormatBR())
			b.WriteString("\n" + cursorMark)
			p.Fprintf(b, labelOverride)
			b.WriteString("\n")
		}
		return
	}

	customers := sel.Customers()
	b.WriteString(cursorMark)
	p.Fprintf(b, labelCustomer)
	b.WriteString(": " + customers.Query() + "\n")
	switch {
	case customers.Loading():
		b.WriteString(blankMark)
		p.Fprintf(b, labelSearching)
		b.WriteString("\n")
	case customers.Failed():
		b.WriteString(blankMark)
		p.Fprintf(b, labelSearchFailed)
		b.WriteString("\n")
	case customers.NoMatches():
		b.WriteString(blankMark)
		p.Fprintf(b, labelNoCustomers)
		b.WriteString("\n")
	}
	highlight := customers.HighlightIndex()
	for i, c := range customers.Results() {
		b.WriteString(blankMark)
		if i == highlight {
			b.WriteString(cursorMark)
		} else {
			b.WriteString(blankMark)
		}
		b.WriteString(c.Name + "  ")
		m.viewBalance(b, c)
		b.WriteString("\n")
	}
}

func (m *Model) viewCustomer(b *strings.Builder, c partner.CustomerSnapshot) {
	sel, _ := m.session.Payment()
	p := m.printer

	p.Fprintf(b, labelCustomer)
	b.WriteString(": " + c.Name + "  ")
	m.viewBalance(b, c)
	b.WriteString("\n" + blankMark)
	p.Fprintf(b, labelProjected, sel.ProjectedBalance().FormatBR())
	b.WriteString("\n")
}

func (m *Model) viewBalance(b *strings.Builder, c partner.CustomerSnapshot) {
	p := m.printer
	limit := p.Sprintf(labelNoLimit)
	if c.HasCreditLimit() {
		limit = c.CreditLimit.FormatBR()
	}
	p.Fprintf(b, labelBalance, c.Balance.FormatBR(), limit)
}

func (m *Model) viewCustomerForm(b *strings.Builder) {
	p := m.printer

	p.Fprintf(b, labelNewCustomer)
	b.WriteString("\n")
	labels := [fieldCount]string{labelName, labelPhone, labelCreditLimit}
	for i, label := range labels {
		if i == m.form.active {
			b.WriteString(cursorMark)
		} else {
			b.WriteString(blankMark)
		}
		p.Fprintf(b, label)
		b.WriteString(": " + m.form.fields[i] + "\n")
	}
	if m.session.RegistrationPending() {
		b.WriteString(blankMark)
		p.Fprintf(b, labelRegistering)
		b.WriteString("\n")
	}
}

// markRow records the row about to be written as clickable
func (m *Model) markRow(b *strings.Builder, target hitTarget, index int) {
	m.hits[strings.Count(b.String(), "\n")] = hit{target: target, index: index}
}

func noticePrefix(level checkout.NoticeLevel) string {
	switch level {
	case checkout.NoticeError:
		return "[!] "
	case checkout.NoticeSuccess:
		return "[ok] "
	}
	return "[i] "
}

func hasPrompt(s *checkout.Session) bool {
	_, ok := s.Prompt()
	return ok
}

func hasPayment(s *checkout.Session) bool {
	_, ok := s.Payment()
	return ok
}
