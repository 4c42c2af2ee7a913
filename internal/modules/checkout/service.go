package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"frontdesk/internal/backend"
	"frontdesk/internal/cache"
	"frontdesk/internal/domain"
	"frontdesk/internal/metrics"
	"frontdesk/internal/repository"
)

type Options struct {
	PollInterval time.Duration
	RepollDelay  time.Duration
	Bank         BankAccount
	Now          func() time.Time
	// PendingStaleAfter is how long a pending attempt may stay unrecorded
	// before it counts as an unknown outcome. Keep it above the backend timeout.
	PendingStaleAfter time.Duration
}

type Service struct {
	backend  Backend
	attempts AttemptRepository
	notifier Notifier
	cache    Cache
	sessions *store
	loggerf  func(format string, args ...interface{})

	pollInterval time.Duration
	repollDelay  time.Duration
	bank         BankAccount
	now          func() time.Time
	staleAfter   time.Duration
}

func NewService(b Backend, attempts AttemptRepository, notifier Notifier, c Cache, opts Options, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PendingStaleAfter <= 0 {
		opts.PendingStaleAfter = 2 * time.Minute
	}
	return &Service{
		backend:      b,
		attempts:     attempts,
		notifier:     notifier,
		cache:        c,
		sessions:     newStore(),
		loggerf:      loggerf,
		pollInterval: opts.PollInterval,
		repollDelay:  opts.RepollDelay,
		bank:         opts.Bank,
		now:          opts.Now,
		staleAfter:   opts.PendingStaleAfter,
	}
}

// FetchCheckOutList loads the checked-in bookings and returns those matching
// search. The unfiltered list is kept for OpenPanel.
func (s *Service) FetchCheckOutList(ctx context.Context, staffID int64, search string) ([]backend.BookingSummary, error) {
	sess := s.sessions.get(staffID)

	list, err := s.backend.ListCheckOut(ctx)
	if err != nil {
		s.loggerf("level=error msg=failed to load check-out list staff_id=%d err=%v", staffID, err)
		sess.mu.Lock()
		sess.lastError = backend.ServerMessage(err, "Failed to load check-out list")
		sess.mu.Unlock()
		return nil, err
	}

	sess.mu.Lock()
	sess.list = list
	sess.search = search
	sess.mu.Unlock()

	return FilterBookings(list, search), nil
}

// FilterBookings keeps checked-in bookings whose id, customer contact or
// room number contains query (case-insensitive).
func FilterBookings(list []backend.BookingSummary, query string) []backend.BookingSummary {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]backend.BookingSummary, 0, len(list))
	for _, b := range list {
		if b.Status != "" && b.Status != backend.StatusCheckedIn {
			continue
		}
		if q == "" || bookingMatches(b, q) {
			out = append(out, b)
		}
	}
	return out
}

func bookingMatches(b backend.BookingSummary, q string) bool {
	fields := []string{
		strconv.FormatInt(b.BookingID, 10),
		b.CustomerName,
		b.CustomerPhone,
		b.CustomerEmail,
		b.RoomNumber,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// OpenPanel starts a check-out for bookingID. Invoice and calculation
// failures are reported in the view; the panel stays open.
func (s *Service) OpenPanel(ctx context.Context, staffID, bookingID int64) (SessionView, error) {
	sess := s.sessions.get(staffID)

	booking, err := s.findBooking(ctx, sess, bookingID)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	if sess.phase == PhaseSubmitting {
		sess.mu.Unlock()
		return SessionView{}, ErrSubmitting
	}
	wasOpen := sess.phase.Open()
	sess.resetLocked()
	sess.phase = PhaseClosed
	if err := sess.setPhaseLocked(PhaseCalculating); err != nil {
		sess.mu.Unlock()
		return SessionView{}, err
	}
	sess.token = backend.TokenFrom(ctx)
	sess.booking = &booking
	sess.actualCheckoutTime = s.now()
	sess.lastSubmission = nil
	sess.calcSeq++
	gen, seq, at := sess.generation, sess.calcSeq, sess.actualCheckoutTime
	s.startPollingLocked(sess)
	sess.mu.Unlock()

	if !wasOpen {
		metrics.OpenSessions.Inc()
	}
	s.loggerf("level=info msg=check-out panel opened staff_id=%d booking_id=%d booking_room_id=%d", staffID, bookingID, booking.BookingRoomID)

	var (
		invoice *backend.InvoiceDetails
		calc    *backend.CheckoutCalculation
		invErr  error
		calcErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		invoice, invErr = s.backend.InvoiceDetails(ctx, bookingID)
		return invErr
	})
	g.Go(func() error {
		calc, calcErr = s.backend.CalculateCheckout(ctx, bookingID, at)
		return calcErr
	})
	if err := g.Wait(); err != nil {
		s.loggerf("level=error msg=check-out panel load failed staff_id=%d booking_id=%d err=%v", staffID, bookingID, err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.generation != gen {
		return s.viewLocked(sess), nil
	}
	var msgs []string
	if invErr != nil {
		msgs = append(msgs, backend.ServerMessage(invErr, "Failed to load invoice details"))
	} else {
		sess.invoice = invoice
	}
	if sess.calcSeq == seq {
		if calcErr != nil {
			msgs = append(msgs, backend.ServerMessage(calcErr, "Failed to calculate check-out"))
		} else {
			sess.calc = calc
		}
		if sess.phase == PhaseCalculating {
			sess.phase = PhasePanel
		}
		sess.lastError = strings.Join(msgs, "; ")
		return s.viewLocked(sess), nil
	}
	// a newer calculation owns lastError; only add the invoice failure to it
	if len(msgs) > 0 {
		if sess.lastError != "" {
			msgs = append([]string{sess.lastError}, msgs...)
		}
		sess.lastError = strings.Join(msgs, "; ")
	}
	return s.viewLocked(sess), nil
}

func (s *Service) findBooking(ctx context.Context, sess *Session, bookingID int64) (backend.BookingSummary, error) {
	sess.mu.Lock()
	list := sess.list
	sess.mu.Unlock()

	if b, ok := lookupBooking(list, bookingID); ok {
		return b, nil
	}

	list, err := s.backend.ListCheckOut(ctx)
	if err != nil {
		return backend.BookingSummary{}, err
	}
	sess.mu.Lock()
	sess.list = list
	sess.mu.Unlock()

	if b, ok := lookupBooking(list, bookingID); ok {
		return b, nil
	}
	return backend.BookingSummary{}, ErrBookingNotEligible
}

func lookupBooking(list []backend.BookingSummary, bookingID int64) (backend.BookingSummary, bool) {
	for _, b := range list {
		if b.BookingID == bookingID && (b.Status == "" || b.Status == backend.StatusCheckedIn) {
			return b, true
		}
	}
	return backend.BookingSummary{}, false
}

// ChangeCheckoutTime recalculates fees for a new actual check-out time. Only
// the most recently requested calculation is applied.
func (s *Service) ChangeCheckoutTime(ctx context.Context, staffID int64, at time.Time) (SessionView, error) {
	if at.IsZero() {
		return SessionView{}, ErrValidation
	}
	sess := s.sessions.get(staffID)

	sess.mu.Lock()
	if !sess.phase.Open() || sess.booking == nil {
		sess.mu.Unlock()
		return SessionView{}, ErrPanelClosed
	}
	if !sess.phase.Editable() {
		sess.mu.Unlock()
		return SessionView{}, ErrInvalidPhase
	}
	if err := sess.setPhaseLocked(PhaseCalculating); err != nil {
		sess.mu.Unlock()
		return SessionView{}, err
	}
	sess.actualCheckoutTime = at
	sess.calcSeq++
	gen, seq, bookingID := sess.generation, sess.calcSeq, sess.booking.BookingID
	sess.mu.Unlock()

	calc, err := s.backend.CalculateCheckout(ctx, bookingID, at)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.generation != gen || sess.calcSeq != seq {
		s.loggerf("level=info msg=discarding stale check-out calculation staff_id=%d booking_id=%d seq=%d", staffID, bookingID, seq)
		return s.viewLocked(sess), nil
	}
	if err != nil {
		s.loggerf("level=error msg=check-out calculation failed staff_id=%d booking_id=%d err=%v", staffID, bookingID, err)
		sess.lastError = backend.ServerMessage(err, "Failed to calculate check-out")
	} else {
		sess.calc = calc
		sess.lastError = ""
	}
	sess.phase = PhasePanel
	return s.viewLocked(sess), nil
}

type AddServiceInput struct {
	ServiceID    int64
	ServiceName  string
	PricePerUnit float64
	Quantity     int
}

func (s *Service) AddService(staffID int64, in AddServiceInput) (SessionView, error) {
	return s.mutateEditable(staffID, func(sess *Session) error {
		return sess.cart.Add(in.ServiceID, in.ServiceName, in.PricePerUnit, in.Quantity)
	})
}

func (s *Service) RemoveService(staffID, serviceID int64) (SessionView, error) {
	return s.mutateEditable(staffID, func(sess *Session) error {
		return sess.cart.Remove(serviceID)
	})
}

func (s *Service) mutateEditable(staffID int64, fn func(sess *Session) error) (SessionView, error) {
	sess := s.sessions.get(staffID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.phase.Open() {
		return SessionView{}, ErrPanelClosed
	}
	if !sess.phase.Editable() {
		return SessionView{}, ErrInvalidPhase
	}
	if err := fn(sess); err != nil {
		return SessionView{}, err
	}
	return s.viewLocked(sess), nil
}

// SetPenalty records the manual additional penalty.
func (s *Service) SetPenalty(staffID int64, penalty float64) (SessionView, error) {
	if !validAmount(penalty) {
		return SessionView{}, ErrValidation
	}
	sess := s.sessions.get(staffID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.phase.Open() {
		return SessionView{}, ErrPanelClosed
	}
	if sess.phase == PhaseSubmitting {
		return SessionView{}, ErrSubmitting
	}
	sess.penalty = penalty
	return s.viewLocked(sess), nil
}

// OpenInvoice moves from the panel to payment capture. It needs a landed
// calculation and a housekeeping note.
func (s *Service) OpenInvoice(staffID int64) (SessionView, error) {
	sess := s.sessions.get(staffID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	switch sess.phase {
	case PhaseClosed, PhaseDone:
		return SessionView{}, ErrPanelClosed
	case PhaseCalculating:
		return SessionView{}, ErrCalculationPending
	case PhaseInvoice:
		return s.viewLocked(sess), nil
	case PhaseSubmitting:
		return SessionView{}, ErrSubmitting
	case PhasePanel:
	}
	if sess.calc == nil {
		return SessionView{}, ErrCalculationPending
	}
	if err := sess.readiness.gate(); err != nil {
		return SessionView{}, err
	}
	if err := sess.setPhaseLocked(PhaseInvoice); err != nil {
		return SessionView{}, err
	}
	return s.viewLocked(sess), nil
}

func (s *Service) CloseInvoice(staffID int64) (SessionView, error) {
	sess := s.sessions.get(staffID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	switch sess.phase {
	case PhaseInvoice:
		sess.phase = PhasePanel
	case PhaseSubmitting:
		return SessionView{}, ErrSubmitting
	case PhaseClosed, PhaseDone:
		return SessionView{}, ErrPanelClosed
	case PhaseCalculating, PhasePanel:
	}
	return s.viewLocked(sess), nil
}

// Invoice renders the bill for a prospective payment. method may be empty
// while staff have not picked one.
func (s *Service) Invoice(staffID int64, method backend.PaymentMethod, cashReceived float64) (InvoiceView, error) {
	if method != "" && !method.Valid() {
		return InvoiceView{}, ErrInvalidPaymentMethod
	}
	if !validAmount(cashReceived) {
		return InvoiceView{}, ErrValidation
	}
	sess := s.sessions.get(staffID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.phase.Open() || sess.booking == nil {
		return InvoiceView{}, ErrPanelClosed
	}
	return s.invoiceViewLocked(sess, method, cashReceived), nil
}

func (s *Service) invoiceViewLocked(sess *Session, method backend.PaymentMethod, cashReceived float64) InvoiceView {
	return buildInvoiceView(invoiceInput{
		booking:      sess.booking,
		invoice:      sess.invoice,
		calc:         sess.calc,
		pending:      sess.cart.Items(),
		penalty:      sess.penalty,
		actual:       sess.actualCheckoutTime,
		hasNote:      sess.readiness.HasNote,
		method:       method,
		cashReceived: cashReceived,
		bank:         s.bank,
		now:          s.now(),
	})
}

// Submit sends the check-out to the backend. On failure every local input
// (cart, penalty, time) is kept so staff can retry.
func (s *Service) Submit(ctx context.Context, staffID int64, in SubmitInput) (*SubmitResult, error) {
	if !validAmount(in.CashReceived) {
		return nil, ErrValidation
	}
	sess := s.sessions.get(staffID)

	sess.mu.Lock()
	if err := submitPhaseErr(sess.phase); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	bookingID, gen := sess.booking.BookingID, sess.generation
	sess.mu.Unlock()

	if s.attempts != nil {
		now := s.now()
		n, err := s.attempts.ExpireStalePending(ctx, bookingID, now.Add(-s.staleAfter), now)
		if err != nil {
			return nil, fmt.Errorf("expire stale attempts: %w", err)
		}
		if n > 0 {
			s.loggerf("level=warn msg=stale pending check-out attempt marked unknown booking_id=%d count=%d", bookingID, n)
		}
	}

	if s.attempts != nil && !in.ConfirmRetry {
		last, err := s.attempts.LatestForBooking(ctx, bookingID)
		if err != nil {
			return nil, fmt.Errorf("load previous attempts: %w", err)
		}
		if last != nil && last.Status == domain.AttemptUnknown {
			return nil, ErrPossibleDuplicate
		}
	}

	sess.mu.Lock()
	if sess.generation != gen {
		sess.mu.Unlock()
		return nil, ErrInvalidPhase
	}
	if err := submitPhaseErr(sess.phase); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	if sess.calc == nil {
		sess.mu.Unlock()
		return nil, ErrCalculationPending
	}
	if sess.readiness.Checking {
		sess.mu.Unlock()
		return nil, ErrReadinessChecking
	}
	view := s.invoiceViewLocked(sess, in.PaymentMethod, in.CashReceived)
	if err := CheckPayment(view.FinalAmount, in.PaymentMethod, in.CashReceived, sess.readiness.HasNote); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	payload := backend.CheckOutPayload{
		PaymentMethod:      in.PaymentMethod,
		FinalServices:      sess.cart.FinalServices(),
		Penalty:            sess.penalty,
		ActualCheckoutTime: backend.NewLocalTime(sess.actualCheckoutTime),
	}
	search := sess.search
	sess.phase = PhaseSubmitting
	sess.lastError = ""
	sess.mu.Unlock()

	// The submission outlives a disconnecting caller so its outcome is known.
	callCtx := context.WithoutCancel(ctx)

	attempt := &domain.CheckoutAttempt{
		ID:            uuid.NewString(),
		BookingID:     bookingID,
		StaffID:       staffID,
		PaymentMethod: string(in.PaymentMethod),
		Amount:        view.FinalAmount,
		Penalty:       payload.Penalty,
		ServicesCount: len(payload.FinalServices),
		Status:        domain.AttemptPending,
		CreatedAt:     s.now(),
	}
	if s.attempts != nil {
		if err := s.attempts.Create(callCtx, attempt); err != nil {
			s.backToInvoice(sess, gen, "")
			if errors.Is(err, repository.ErrAttemptInFlight) {
				return nil, ErrSubmitting
			}
			return nil, fmt.Errorf("record attempt: %w", err)
		}
	}

	s.loggerf("level=info msg=submitting check-out staff_id=%d booking_id=%d method=%s amount=%.2f attempt_id=%s", staffID, bookingID, in.PaymentMethod, view.FinalAmount, attempt.ID)
	err := s.backend.CheckOut(callCtx, bookingID, payload)
	status, errMsg := submissionOutcome(err)
	if s.attempts != nil {
		if cerr := s.attempts.Complete(callCtx, attempt.ID, status, errMsg, s.now()); cerr != nil {
			s.loggerf("level=error msg=failed to record check-out outcome attempt_id=%s status=%s err=%v", attempt.ID, status, cerr)
		}
	}
	metrics.CheckoutSubmissionsTotal.WithLabelValues(string(in.PaymentMethod), string(status)).Inc()

	if err != nil {
		s.loggerf("level=error msg=check-out submission failed staff_id=%d booking_id=%d status=%s err=%v", staffID, bookingID, status, err)
		s.backToInvoice(sess, gen, errMsg)
		return nil, &SubmitError{Message: errMsg, Unknown: status == domain.AttemptUnknown, Err: err}
	}

	result := &SubmitResult{
		BookingID:     bookingID,
		AttemptID:     attempt.ID,
		PaymentMethod: in.PaymentMethod,
		FinalAmount:   view.FinalAmount,
		CashReceived:  in.CashReceived,
		ChangeAmount:  view.ChangeAmount,
		CompletedAt:   s.now(),
	}

	sess.mu.Lock()
	if sess.generation == gen {
		sess.resetLocked()
		sess.phase = PhaseDone
		sess.lastSubmission = result
	}
	sess.mu.Unlock()
	metrics.OpenSessions.Dec()
	s.loggerf("level=info msg=check-out completed staff_id=%d booking_id=%d attempt_id=%s", staffID, bookingID, attempt.ID)

	list, lerr := s.FetchCheckOutList(callCtx, staffID, search)
	if lerr != nil {
		result.ListError = backend.ServerMessage(lerr, "Failed to refresh check-out list")
		result.CheckOutList = []backend.BookingSummary{}
	} else {
		result.CheckOutList = list
	}
	return result, nil
}

func submitPhaseErr(p Phase) error {
	switch p {
	case PhaseInvoice:
		return nil
	case PhaseSubmitting:
		return ErrSubmitting
	case PhaseClosed, PhaseDone:
		return ErrPanelClosed
	case PhaseCalculating, PhasePanel:
		return ErrInvalidPhase
	}
	return ErrInvalidPhase
}

func (s *Service) backToInvoice(sess *Session, gen uint64, message string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.generation == gen && sess.phase == PhaseSubmitting {
		sess.phase = PhaseInvoice
		sess.lastError = message
	}
}

// submissionOutcome classifies a CheckOut error. A backend answer is a
// definite failure; anything else may have been committed upstream.
func submissionOutcome(err error) (domain.AttemptStatus, string) {
	if err == nil {
		return domain.AttemptSucceeded, ""
	}
	var he *backend.HTTPError
	if errors.As(err, &he) {
		return domain.AttemptFailed, backend.ServerMessage(err, "Check-out was rejected by the server")
	}
	return domain.AttemptUnknown, "No response from the server; the check-out may or may not have been recorded"
}

// ClosePanel stops polling and drops the open booking.
func (s *Service) ClosePanel(staffID int64) (SessionView, error) {
	sess := s.sessions.get(staffID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.phase == PhaseSubmitting {
		return SessionView{}, ErrSubmitting
	}
	if sess.phase.Open() {
		sess.resetLocked()
		sess.phase = PhaseClosed
		metrics.OpenSessions.Dec()
		s.loggerf("level=info msg=check-out panel closed staff_id=%d", staffID)
	}
	return s.viewLocked(sess), nil
}

func (s *Service) View(staffID int64) SessionView {
	sess := s.sessions.get(staffID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.viewLocked(sess)
}

func (s *Service) viewLocked(sess *Session) SessionView {
	v := SessionView{
		Phase:             sess.phase,
		PanelOpen:         sess.phase.Open(),
		Search:            sess.search,
		Booking:           sess.booking,
		Invoice:           sess.invoice,
		Calculation:       sess.calc,
		PendingServices:   sess.cart.Items(),
		Penalty:           sess.penalty,
		Readiness:         sess.readiness,
		CanProcessPayment: sess.readiness.CanProcessPayment(),
		Error:             sess.lastError,
		LastSubmission:    sess.lastSubmission,
	}
	if !sess.actualCheckoutTime.IsZero() {
		t := backend.NewLocalTime(sess.actualCheckoutTime)
		v.ActualCheckoutTime = &t
	}
	if sess.calc != nil {
		v.FinalTotalAmount = FinalTotalAmount(sess.calc, v.PendingServices)
	}
	return v
}

// ServiceCatalog lists orderable services, cached in Redis when available.
// refresh drops the cached copy first.
func (s *Service) ServiceCatalog(ctx context.Context, refresh bool) ([]backend.HotelService, error) {
	var out []backend.HotelService
	if s.cache != nil {
		if refresh {
			s.cache.Invalidate(ctx, cache.ServicesKey)
		} else if s.cache.GetJSON(ctx, cache.ServicesKey, &out) {
			return out, nil
		}
	}
	out, err := s.backend.Services(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetJSON(ctx, cache.ServicesKey, out)
	}
	return out, nil
}

// Attempts returns the submission ledger of a booking, newest first.
func (s *Service) Attempts(ctx context.Context, bookingID int64) ([]domain.CheckoutAttempt, error) {
	if bookingID <= 0 {
		return nil, ErrValidation
	}
	return s.attempts.ListForBooking(ctx, bookingID)
}

// Close stops every running poller.
func (s *Service) Close() {
	for _, sess := range s.sessions.all() {
		sess.mu.Lock()
		if sess.stopPoll != nil {
			sess.stopPoll()
			sess.stopPoll = nil
		}
		sess.mu.Unlock()
	}
}
