package checkout

// Phase is the single tagged state of a checkout session
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSearching
	PhaseQuantifying
	PhaseChoosingPayment
	PhaseAwaitingCashInput
	PhaseAwaitingCustomer
	PhaseReady
	PhaseCommitting
)

var phaseNames = [...]string{
	PhaseIdle:              "idle",
	PhaseSearching:         "searching",
	PhaseQuantifying:       "quantifying",
	PhaseChoosingPayment:   "choosing_payment",
	PhaseAwaitingCashInput: "awaiting_cash_input",
	PhaseAwaitingCustomer:  "awaiting_customer",
	PhaseReady:             "ready",
	PhaseCommitting:        "committing",
}

// String returns the string representation of Phase
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Focus is the control that owns keyboard input
type Focus int

const (
	FocusNone Focus = iota
	FocusSearch
	FocusFinalize
	FocusQuantity
	FocusPaymentMethods
	FocusCashInput
	FocusCustomerSearch
	FocusCustomerForm
	FocusCreditOverride
	FocusConfirm
)

var focusNames = [...]string{
	FocusNone:           "none",
	FocusSearch:         "search",
	FocusFinalize:       "finalize",
	FocusQuantity:       "quantity",
	FocusPaymentMethods: "payment_methods",
	FocusCashInput:      "cash_input",
	FocusCustomerSearch: "customer_search",
	FocusCustomerForm:   "customer_form",
	FocusCreditOverride: "credit_override",
	FocusConfirm:        "confirm",
}

// String returns the string representation of Focus
func (f Focus) String() string {
	if f < 0 || int(f) >= len(focusNames) {
		return "unknown"
	}
	return focusNames[f]
}

// FocusState is everything the active control depends on
type FocusState struct {
	Phase            Phase
	FinalizeArmed    bool // operator moved from an empty search to the finalize action
	CustomerResolved bool
	OverridePending  bool
	Registering      bool
}

// FocusFor maps a checkout state to the control that owns the keyboard.
// The renderer reads the result; nothing else moves focus.
func FocusFor(st FocusState) Focus {
	switch st.Phase {
	case PhaseIdle:
		if st.FinalizeArmed {
			return FocusFinalize
		}
		return FocusSearch
	case PhaseSearching:
		return FocusSearch
	case PhaseQuantifying:
		return FocusQuantity
	case PhaseChoosingPayment:
		return FocusPaymentMethods
	case PhaseAwaitingCashInput:
		return FocusCashInput
	case PhaseAwaitingCustomer:
		switch {
		case st.Registering:
			return FocusCustomerForm
		case st.OverridePending:
			return FocusCreditOverride
		case st.CustomerResolved:
			return FocusConfirm
		default:
			return FocusCustomerSearch
		}
	case PhaseReady:
		return FocusConfirm
	default:
		return FocusNone
	}
}
