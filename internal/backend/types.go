package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type BookingStatus string

const (
	StatusPending        BookingStatus = "PENDING"
	StatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	StatusConfirmed      BookingStatus = "CONFIRMED"
	StatusCheckedIn      BookingStatus = "CHECKED-IN"
	StatusCheckedOut     BookingStatus = "CHECKED-OUT"
	StatusCancelled      BookingStatus = "CANCELLED"
	StatusNoShow         BookingStatus = "NO_SHOW"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "Cash"
	PaymentBankTransfer PaymentMethod = "Bank Transfer"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentBankTransfer
}

type TaskStatus string

const (
	TaskAssigned   TaskStatus = "Assigned"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
	TaskCancelled  TaskStatus = "Cancelled"
)

// Active reports whether the task still blocks a new assignment.
func (s TaskStatus) Active() bool {
	return s == TaskAssigned || s == TaskInProgress
}

// LocalTime is the backend's ISO local date-time ("2006-01-02T15:04:05").
// Offsets and fractional seconds are accepted on input.
type LocalTime struct {
	time.Time
}

const LocalLayout = "2006-01-02T15:04:05"

var localLayouts = []string{
	time.RFC3339Nano,
	LocalLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func NewLocalTime(t time.Time) LocalTime { return LocalTime{Time: t} }

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(LocalLayout))
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseLocalTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseLocalTime parses any of the date-time shapes the backend and the
// staff UI send. Values without an offset are read in time.Local.
func ParseLocalTime(s string) (time.Time, error) {
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date-time %q", s)
}

type BookingSummary struct {
	BookingID     int64         `json:"bookingId"`
	BookingRoomID int64         `json:"bookingRoomId"`
	CustomerName  string        `json:"customerName"`
	CustomerPhone string        `json:"customerPhone,omitempty"`
	CustomerEmail string        `json:"customerEmail,omitempty"`
	RoomID        int64         `json:"roomId"`
	RoomNumber    string        `json:"roomNumber"`
	CheckInDate   LocalTime     `json:"checkInDate"`
	CheckOutDate  LocalTime     `json:"checkOutDate"`
	Status        BookingStatus `json:"status"`
}

type InvoiceLine struct {
	ServiceID   int64   `json:"serviceId"`
	ServiceName string  `json:"serviceName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

type InvoiceDetails struct {
	InvoiceID     int64         `json:"invoiceId,omitempty"`
	BookingID     int64         `json:"bookingId"`
	CustomerName  string        `json:"customerName"`
	RoomNumber    string        `json:"roomNumber"`
	CheckIn       LocalTime     `json:"checkIn"`
	CheckOut      LocalTime     `json:"checkOut"`
	Nights        int           `json:"nights"`
	PricePerNight float64       `json:"pricePerNight"`
	RoomTotal     float64       `json:"roomTotal"`
	ServiceTotal  float64       `json:"serviceTotal"`
	Deposit       float64       `json:"deposit"`
	UsedServices  []InvoiceLine `json:"usedServices"`
}

// CheckoutCalculation is the backend's fee computation for one actual
// check-out time.
type CheckoutCalculation struct {
	Scenario             string  `json:"scenario"`
	ScenarioDescription  string  `json:"scenarioDescription"`
	HoursLate            float64 `json:"hoursLate"`
	RoomTotal            float64 `json:"roomTotal"`
	ServiceTotal         float64 `json:"serviceTotal"`
	Deposit              float64 `json:"deposit"`
	LateCheckoutFee      float64 `json:"lateCheckoutFee"`
	EarlyCheckoutPenalty float64 `json:"earlyCheckoutPenalty"`
	FinalAmount          float64 `json:"finalAmount"`
}

type calculateRequest struct {
	ActualCheckoutTime LocalTime `json:"actualCheckoutTime"`
}

type FinalService struct {
	ServiceID int64 `json:"serviceId"`
	Quantity  int   `json:"quantity"`
}

type CheckOutPayload struct {
	PaymentMethod      PaymentMethod  `json:"paymentMethod"`
	FinalServices      []FinalService `json:"finalServices"`
	Penalty            float64        `json:"penalty"`
	ActualCheckoutTime LocalTime      `json:"actualCheckoutTime"`
}

type HousekeepingTask struct {
	TaskID        int64      `json:"taskId"`
	BookingRoomID int64      `json:"bookingRoomId"`
	StaffID       int64      `json:"staffId"`
	StaffName     string     `json:"staffName,omitempty"`
	Status        TaskStatus `json:"status"`
	Note          string     `json:"note,omitempty"`
	CreatedAt     LocalTime  `json:"createdAt"`
}

type AssignTaskRequest struct {
	BookingRoomID int64  `json:"bookingRoomId"`
	StaffID       int64  `json:"staffId"`
	TaskType      string `json:"taskType"`
}

type updateTaskStatusRequest struct {
	Status TaskStatus `json:"status"`
}

type Staff struct {
	StaffID  int64  `json:"staffId"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
	Status   string `json:"status,omitempty"`
}

// HotelService is an orderable extra (minibar, laundry, ...).
type HotelService struct {
	ServiceID   int64   `json:"serviceId"`
	ServiceName string  `json:"serviceName"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit,omitempty"`
	Available   bool    `json:"available"`
}
