package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFocusFor(t *testing.T) {
	tests := []struct {
		name  string
		state FocusState
		want  Focus
	}{
		{"idle", FocusState{Phase: PhaseIdle}, FocusSearch},
		{"idle with finalize armed", FocusState{Phase: PhaseIdle, FinalizeArmed: true}, FocusFinalize},
		{"searching", FocusState{Phase: PhaseSearching, FinalizeArmed: true}, FocusSearch},
		{"quantifying", FocusState{Phase: PhaseQuantifying}, FocusQuantity},
		{"choosing payment", FocusState{Phase: PhaseChoosingPayment}, FocusPaymentMethods},
		{"cash input", FocusState{Phase: PhaseAwaitingCashInput}, FocusCashInput},
		{"customer search", FocusState{Phase: PhaseAwaitingCustomer}, FocusCustomerSearch},
		{"customer resolved", FocusState{Phase: PhaseAwaitingCustomer, CustomerResolved: true}, FocusConfirm},
		{"override pending", FocusState{Phase: PhaseAwaitingCustomer, CustomerResolved: true, OverridePending: true}, FocusCreditOverride},
		{"registering", FocusState{Phase: PhaseAwaitingCustomer, Registering: true}, FocusCustomerForm},
		{"ready", FocusState{Phase: PhaseReady}, FocusConfirm},
		{"committing", FocusState{Phase: PhaseCommitting}, FocusNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FocusFor(tt.state))
		})
	}
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "awaiting_cash_input", PhaseAwaitingCashInput.String())
	assert.Equal(t, "unknown", Phase(99).String())
	assert.Equal(t, "credit_override", FocusCreditOverride.String())
}
