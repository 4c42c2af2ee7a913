package checkout

import (
	"context"
	"sync"
	"time"

	"frontdesk/internal/backend"
)

// Readiness is the housekeeping-note state of the open booking room.
type Readiness struct {
	HasNote   bool      `json:"hasNote"`
	Note      string    `json:"note"`
	Checking  bool      `json:"checkingStatus"`
	CheckedAt time.Time `json:"checkedAt,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// CanProcessPayment mirrors the "Process Payment & Check-out" button.
func (r Readiness) CanProcessPayment() bool {
	return r.gate() == nil
}

// gate is the error behind a false CanProcessPayment.
func (r Readiness) gate() error {
	if r.Checking {
		return ErrReadinessChecking
	}
	if !r.HasNote {
		return ErrNoteMissing
	}
	return nil
}

// Session is one staff member's check-out workflow. generation changes on
// every open and close; calcSeq on every calculation request. Results
// tagged with an older value are dropped.
type Session struct {
	mu sync.Mutex

	staffID    int64
	token      string
	generation uint64
	phase      Phase

	list   []backend.BookingSummary
	search string

	booking            *backend.BookingSummary
	invoice            *backend.InvoiceDetails
	calc               *backend.CheckoutCalculation
	calcSeq            uint64
	actualCheckoutTime time.Time
	cart               Cart
	penalty            float64
	readiness          Readiness
	lastError          string
	lastSubmission     *SubmitResult

	stopPoll context.CancelFunc
	nudge    chan struct{}
}

// resetLocked clears the per-booking state and stops the poller.
func (s *Session) resetLocked() {
	if s.stopPoll != nil {
		s.stopPoll()
		s.stopPoll = nil
	}
	s.nudge = nil
	s.generation++
	s.booking = nil
	s.invoice = nil
	s.calc = nil
	s.actualCheckoutTime = time.Time{}
	s.cart.Clear()
	s.penalty = 0
	s.readiness = Readiness{}
	s.lastError = ""
}

func (s *Session) setPhaseLocked(to Phase) error {
	if s.phase == to && to != PhaseCalculating {
		return nil
	}
	if !s.phase.CanTransition(to) {
		return ErrInvalidPhase
	}
	s.phase = to
	return nil
}

type store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func newStore() *store {
	return &store{sessions: make(map[int64]*Session)}
}

func (st *store) get(staffID int64) *Session {
	st.mu.RLock()
	s, ok := st.sessions[staffID]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[staffID]; ok {
		return s
	}
	s = &Session{staffID: staffID, phase: PhaseClosed}
	st.sessions[staffID] = s
	return s
}

func (st *store) all() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	return out
}
