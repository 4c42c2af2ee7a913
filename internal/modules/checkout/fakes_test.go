package checkout

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"frontdesk/internal/backend"
	"frontdesk/internal/domain"
	"frontdesk/internal/repository"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.Local)

type fakeBackend struct {
	mu sync.Mutex

	list       []backend.BookingSummary
	listErr    error
	listCalls  int
	invoice    *backend.InvoiceDetails
	invoiceErr error
	calcFn     func(ctx context.Context, bookingID int64, at time.Time) (*backend.CheckoutCalculation, error)
	calcCalls  int
	note       string
	noteFound  bool
	noteErr    error
	noteCalls  int
	noteToken  string

	checkOutErr error
	checkOuts   []backend.CheckOutPayload

	services      []backend.HotelService
	servicesCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		list: []backend.BookingSummary{
			{BookingID: 42, BookingRoomID: 420, CustomerName: "Tran Thi Lan", CustomerPhone: "0901234567", RoomNumber: "301", Status: backend.StatusCheckedIn},
			{BookingID: 43, BookingRoomID: 430, CustomerName: "John Smith", CustomerEmail: "john@example.com", RoomNumber: "502", Status: backend.StatusCheckedIn},
		},
		invoice: &backend.InvoiceDetails{BookingID: 42, RoomTotal: 1000000, ServiceTotal: 200000, Deposit: 300000},
		calcFn: func(ctx context.Context, bookingID int64, at time.Time) (*backend.CheckoutCalculation, error) {
			return &backend.CheckoutCalculation{
				Scenario:     "ON_TIME",
				RoomTotal:    1000000,
				ServiceTotal: 200000,
				Deposit:      300000,
				FinalAmount:  900000,
			}, nil
		},
		note:      "Room inspected, nothing missing",
		noteFound: true,
	}
}

func (f *fakeBackend) ListCheckOut(ctx context.Context) ([]backend.BookingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]backend.BookingSummary, len(f.list))
	copy(out, f.list)
	return out, nil
}

func (f *fakeBackend) InvoiceDetails(ctx context.Context, bookingID int64) (*backend.InvoiceDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invoice, f.invoiceErr
}

func (f *fakeBackend) CalculateCheckout(ctx context.Context, bookingID int64, at time.Time) (*backend.CheckoutCalculation, error) {
	f.mu.Lock()
	f.calcCalls++
	fn := f.calcFn
	f.mu.Unlock()
	return fn(ctx, bookingID, at)
}

func (f *fakeBackend) CheckOut(ctx context.Context, bookingID int64, payload backend.CheckOutPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkOuts = append(f.checkOuts, payload)
	if f.checkOutErr != nil {
		return f.checkOutErr
	}
	remaining := f.list[:0]
	for _, b := range f.list {
		if b.BookingID != bookingID {
			remaining = append(remaining, b)
		}
	}
	f.list = remaining
	return nil
}

func (f *fakeBackend) HousekeepingNote(ctx context.Context, bookingRoomID int64) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noteCalls++
	f.noteToken = backend.TokenFrom(ctx)
	return f.note, f.noteFound, f.noteErr
}

func (f *fakeBackend) Services(ctx context.Context) ([]backend.HotelService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.servicesCalls++
	return f.services, nil
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeBackend) counts() (calc, note, checkOut int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calcCalls, f.noteCalls, len(f.checkOuts)
}

type memAttempts struct {
	mu          sync.Mutex
	items       []*domain.CheckoutAttempt
	completeErr error
}

func (m *memAttempts) Create(ctx context.Context, a *domain.CheckoutAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.BookingID == a.BookingID && it.Status == domain.AttemptPending {
			return repository.ErrAttemptInFlight
		}
	}
	cp := *a
	m.items = append(m.items, &cp)
	return nil
}

func (m *memAttempts) Complete(ctx context.Context, id string, status domain.AttemptStatus, msg string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completeErr != nil {
		return m.completeErr
	}
	for _, it := range m.items {
		if it.ID == id && it.Status == domain.AttemptPending {
			it.Status = status
			it.ErrorMessage = msg
			it.CompletedAt = &at
			return nil
		}
	}
	return nil
}

func (m *memAttempts) LatestForBooking(ctx context.Context, bookingID int64) (*domain.CheckoutAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].BookingID == bookingID {
			cp := *m.items[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAttempts) ListForBooking(ctx context.Context, bookingID int64) ([]domain.CheckoutAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CheckoutAttempt
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].BookingID == bookingID {
			out = append(out, *m.items[i])
		}
	}
	return out, nil
}

func (m *memAttempts) ExpireStalePending(ctx context.Context, bookingID int64, cutoff, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, it := range m.items {
		if it.Status != domain.AttemptPending || !it.CreatedAt.Before(cutoff) {
			continue
		}
		if bookingID > 0 && it.BookingID != bookingID {
			continue
		}
		it.Status = domain.AttemptUnknown
		it.ErrorMessage = repository.StalePendingMessage
		it.CompletedAt = &at
		n++
	}
	return n, nil
}

func (m *memAttempts) setCompleteErr(err error) {
	m.mu.Lock()
	m.completeErr = err
	m.mu.Unlock()
}

func (m *memAttempts) statuses() []domain.AttemptStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AttemptStatus, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it.Status)
	}
	return out
}

type recordedEvent struct {
	userID    int64
	eventType string
	payload   interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) SendToUser(userID int64, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{userID, eventType, payload})
}

func (n *recordingNotifier) snapshot() []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedEvent(nil), n.events...)
}

type memCache struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func (c *memCache) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false
	}
	if p, ok := dst.(*[]backend.HotelService); ok {
		*p = v.([]backend.HotelService)
		return true
	}
	return false
}

func (c *memCache) SetJSON(ctx context.Context, key string, v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]interface{})
	}
	c.data[key] = v
}

func (c *memCache) Invalidate(ctx context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
}

// testClock starts at testNow and only moves when a test advances it.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	svc      *Service
	backend  *fakeBackend
	attempts *memAttempts
	notifier *recordingNotifier
	clock    *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		backend:  newFakeBackend(),
		attempts: &memAttempts{},
		notifier: &recordingNotifier{},
		clock:    &testClock{now: testNow},
	}
	env.svc = NewService(env.backend, env.attempts, env.notifier, &memCache{}, Options{
		PollInterval:      time.Hour,
		RepollDelay:       time.Millisecond,
		Bank:              BankAccount{Bin: "970422", Account: "0123456789", QRTemplate: "https://img.vietqr.io/image/%s-%s-compact2.png"},
		Now:               env.clock.Now,
		PendingStaleAfter: time.Minute,
	}, nil)
	t.Cleanup(env.svc.Close)
	return env
}

func staffCtx() context.Context {
	return backend.WithToken(context.Background(), "staff-token")
}

// openReady opens booking 42 for staff 1 and waits for the first note poll.
func (e *testEnv) openReady(t *testing.T) SessionView {
	t.Helper()
	view, err := e.svc.OpenPanel(staffCtx(), 1, 42)
	require.NoError(t, err)
	e.waitForPoll(t)
	return view
}

func (e *testEnv) waitForPoll(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		v := e.svc.View(1)
		return !v.Readiness.CheckedAt.IsZero() && !v.Readiness.Checking
	}, 2*time.Second, 5*time.Millisecond)
}

func sortedIDs(list []backend.BookingSummary) []int64 {
	out := make([]int64, 0, len(list))
	for _, b := range list {
		out = append(out, b.BookingID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
