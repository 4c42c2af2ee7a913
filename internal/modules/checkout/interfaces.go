package checkout

import (
	"context"
	"time"

	"frontdesk/internal/backend"
	"frontdesk/internal/domain"
)

// Backend is the part of the hotel REST backend the check-out flow uses.
type Backend interface {
	ListCheckOut(ctx context.Context) ([]backend.BookingSummary, error)
	InvoiceDetails(ctx context.Context, bookingID int64) (*backend.InvoiceDetails, error)
	CalculateCheckout(ctx context.Context, bookingID int64, actual time.Time) (*backend.CheckoutCalculation, error)
	CheckOut(ctx context.Context, bookingID int64, payload backend.CheckOutPayload) error
	HousekeepingNote(ctx context.Context, bookingRoomID int64) (string, bool, error)
	Services(ctx context.Context) ([]backend.HotelService, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, a *domain.CheckoutAttempt) error
	Complete(ctx context.Context, id string, status domain.AttemptStatus, errorMessage string, at time.Time) error
	LatestForBooking(ctx context.Context, bookingID int64) (*domain.CheckoutAttempt, error)
	ListForBooking(ctx context.Context, bookingID int64) ([]domain.CheckoutAttempt, error)
	ExpireStalePending(ctx context.Context, bookingID int64, cutoff, at time.Time) (int64, error)
}

// Notifier pushes events to a staff member's live connections.
type Notifier interface {
	SendToUser(userID int64, eventType string, payload interface{})
}

type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) bool
	SetJSON(ctx context.Context, key string, v interface{})
	Invalidate(ctx context.Context, keys ...string)
}

// InvoiceRenderer turns an invoice into a printable document.
type InvoiceRenderer interface {
	Render(v InvoiceView) ([]byte, error)
}
