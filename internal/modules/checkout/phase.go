package checkout

// Phase is the check-out flow state of one staff member's session.
type Phase string

const (
	PhaseClosed      Phase = "closed"
	PhaseCalculating Phase = "calculating"
	PhasePanel       Phase = "panel"
	PhaseInvoice     Phase = "invoice"
	PhaseSubmitting  Phase = "submitting"
	PhaseDone        Phase = "done"
)

var transitions = map[Phase][]Phase{
	PhaseClosed:      {PhaseCalculating},
	PhaseDone:        {PhaseCalculating, PhaseClosed},
	PhaseCalculating: {PhaseCalculating, PhasePanel, PhaseClosed},
	PhasePanel:       {PhaseCalculating, PhaseInvoice, PhaseClosed},
	PhaseInvoice:     {PhasePanel, PhaseSubmitting, PhaseClosed},
	PhaseSubmitting:  {PhaseDone, PhaseInvoice},
}

func (p Phase) CanTransition(to Phase) bool {
	for _, next := range transitions[p] {
		if next == to {
			return true
		}
	}
	return false
}

// Open reports whether the check-out panel is visible in this phase.
func (p Phase) Open() bool {
	switch p {
	case PhaseCalculating, PhasePanel, PhaseInvoice, PhaseSubmitting:
		return true
	case PhaseClosed, PhaseDone:
		return false
	}
	return false
}

// Editable reports whether the cart and check-out time may change.
func (p Phase) Editable() bool {
	return p == PhaseCalculating || p == PhasePanel
}
