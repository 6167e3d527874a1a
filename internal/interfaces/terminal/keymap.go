package terminal

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mercearia/pdv/internal/application/checkout"
)

// Key names as reported by tea.KeyMsg.String
const (
	keyQuit       = "ctrl+c"
	keyUp         = "up"
	keyDown       = "down"
	keyEnter      = "enter"
	keyEsc        = "esc"
	keyTab        = "tab"
	keyShiftTab   = "shift+tab"
	keyFinalize   = "f2"
	keyLineUp     = "pgup"
	keyLineDown   = "pgdown"
	keyEditLine   = "ctrl+e"
	keyRemoveLine = "delete"
	keyNewCust    = "ctrl+n"
	keyChangeCust = "ctrl+r"
)

var (
	acceptKeys  = map[string]bool{"y": true, "s": true, "Y": true, "S": true, keyEnter: true}
	declineKeys = map[string]bool{"n": true, "N": true, keyEsc: true}
)

// helpFor returns the key hint line of the focused control
func helpFor(focus checkout.Focus, phase checkout.Phase) string {
	switch focus {
	case checkout.FocusSearch:
		return helpSearch
	case checkout.FocusFinalize:
		return helpFinalize
	case checkout.FocusQuantity:
		return helpQuantity
	case checkout.FocusPaymentMethods:
		return helpPaymentMethods
	case checkout.FocusCashInput:
		return helpCashInput
	case checkout.FocusCustomerSearch:
		return helpCustomerSearch
	case checkout.FocusCustomerForm:
		return helpCustomerForm
	case checkout.FocusCreditOverride:
		return helpCreditOverride
	case checkout.FocusConfirm:
		if phase == checkout.PhaseAwaitingCustomer {
			return helpConfirmCustomer
		}
		return helpConfirm
	}
	return ""
}

// edit applies a typing key to value. ok is false for keys that do not edit text.
func edit(value string, msg tea.KeyMsg) (string, bool) {
	switch msg.Type {
	case tea.KeyRunes:
		return value + string(msg.Runes), true
	case tea.KeySpace:
		return value + " ", true
	case tea.KeyBackspace:
		r := []rune(value)
		if len(r) == 0 {
			return value, true
		}
		return string(r[:len(r)-1]), true
	case tea.KeyCtrlU:
		return "", true
	}
	return value, false
}

// digit returns the 0-based index of a number key 1-9
func digit(msg tea.KeyMsg) (int, bool) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	return int(r - '1'), true
}
