package checkout

import (
	"time"

	"frontdesk/internal/backend"
)

type OpenPanelRequest struct {
	BookingID int64 `json:"bookingId" binding:"required,gt=0"`
}

type ChangeTimeRequest struct {
	ActualCheckoutTime string `json:"actualCheckoutTime" binding:"required"`
}

type PenaltyRequest struct {
	Penalty *float64 `json:"penalty" binding:"required,gte=0"`
}

type AddServiceRequest struct {
	ServiceID    int64    `json:"serviceId" binding:"required,gt=0"`
	ServiceName  string   `json:"serviceName" binding:"required"`
	PricePerUnit *float64 `json:"pricePerUnit" binding:"required,gte=0"`
	Quantity     int      `json:"quantity" binding:"required,gt=0"`
}

type SubmitRequest struct {
	PaymentMethod string  `json:"paymentMethod" binding:"required"`
	CashReceived  float64 `json:"cashReceived" binding:"gte=0"`
	ConfirmRetry  bool    `json:"confirmRetry"`
}

type SubmitInput struct {
	PaymentMethod backend.PaymentMethod
	CashReceived  float64
	ConfirmRetry  bool
}

type SubmitResult struct {
	BookingID     int64                    `json:"bookingId"`
	AttemptID     string                   `json:"attemptId,omitempty"`
	PaymentMethod backend.PaymentMethod    `json:"paymentMethod"`
	FinalAmount   float64                  `json:"finalAmount"`
	CashReceived  float64                  `json:"cashReceived,omitempty"`
	ChangeAmount  float64                  `json:"changeAmount"`
	CompletedAt   time.Time                `json:"completedAt"`
	CheckOutList  []backend.BookingSummary `json:"checkOutList"`
	ListError     string                   `json:"listError,omitempty"`
}

// SubmitError carries the text staff see when the backend rejects or loses
// a check-out.
type SubmitError struct {
	Message string
	// Unknown is set when the request may have reached the backend.
	Unknown bool
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }

func (e *SubmitError) Unwrap() error { return e.Err }

// SessionView is the check-out state returned to the staff UI.
type SessionView struct {
	Phase              Phase                        `json:"phase"`
	PanelOpen          bool                         `json:"panelOpen"`
	Search             string                       `json:"search,omitempty"`
	Booking            *backend.BookingSummary      `json:"booking,omitempty"`
	Invoice            *backend.InvoiceDetails      `json:"invoice,omitempty"`
	Calculation        *backend.CheckoutCalculation `json:"calculation,omitempty"`
	ActualCheckoutTime *backend.LocalTime           `json:"actualCheckoutTime,omitempty"`
	PendingServices    []PendingService             `json:"pendingServices"`
	Penalty            float64                      `json:"penalty"`
	FinalTotalAmount   float64                      `json:"finalTotalAmount"`
	Readiness          Readiness                    `json:"readiness"`
	CanProcessPayment  bool                         `json:"canProcessPayment"`
	Error              string                       `json:"error,omitempty"`
	LastSubmission     *SubmitResult                `json:"lastSubmission,omitempty"`
}
