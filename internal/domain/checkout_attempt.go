package domain

import "time"

type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "pending"
	AttemptSucceeded AttemptStatus = "succeeded"
	AttemptFailed    AttemptStatus = "failed"
	// AttemptUnknown: the request left this service but no answer came back,
	// so the backend may or may not have closed the booking.
	AttemptUnknown AttemptStatus = "unknown"
)

// CheckoutAttempt is one check-out submission sent to the hotel backend.
type CheckoutAttempt struct {
	ID            string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookingID     int64         `gorm:"index;not null" json:"booking_id"`
	StaffID       int64         `gorm:"index;not null" json:"staff_id"`
	PaymentMethod string        `gorm:"type:varchar(32);not null" json:"payment_method"`
	Amount        float64       `gorm:"not null" json:"amount"`
	Penalty       float64       `json:"penalty"`
	ServicesCount int           `json:"services_count"`
	Status        AttemptStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ErrorMessage  string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

func (CheckoutAttempt) TableName() string { return "checkout_attempts" }
