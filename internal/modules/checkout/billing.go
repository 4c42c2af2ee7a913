package checkout

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"frontdesk/internal/backend"
)

// Breakdown is the bill as shown on the invoice. All amounts share the
// backend's currency unit.
type Breakdown struct {
	RoomTotal            float64 `json:"roomTotal"`
	ServiceTotal         float64 `json:"serviceTotal"`
	PendingServiceTotal  float64 `json:"pendingServiceTotal"`
	Deposit              float64 `json:"deposit"`
	LateCheckoutFee      float64 `json:"lateCheckoutFee"`
	EarlyCheckoutPenalty float64 `json:"earlyCheckoutPenalty"`
	AdditionalPenalty    float64 `json:"additionalPenalty"`
}

func (b Breakdown) Subtotal() float64 {
	return b.RoomTotal + b.ServiceTotal
}

func (b Breakdown) FinalAmount() float64 {
	return b.RoomTotal + b.ServiceTotal + b.PendingServiceTotal - b.Deposit +
		b.LateCheckoutFee + b.EarlyCheckoutPenalty + b.AdditionalPenalty
}

// NewBreakdown prefers the calculation's figures and falls back to the
// invoice when no calculation has landed yet.
func NewBreakdown(inv *backend.InvoiceDetails, calc *backend.CheckoutCalculation, pending []PendingService, penalty float64) Breakdown {
	b := Breakdown{
		PendingServiceTotal: sumPending(pending),
		AdditionalPenalty:   penalty,
	}
	switch {
	case calc != nil:
		b.RoomTotal = calc.RoomTotal
		b.ServiceTotal = calc.ServiceTotal
		b.Deposit = calc.Deposit
		b.LateCheckoutFee = calc.LateCheckoutFee
		b.EarlyCheckoutPenalty = calc.EarlyCheckoutPenalty
	case inv != nil:
		b.RoomTotal = inv.RoomTotal
		b.ServiceTotal = inv.ServiceTotal
		b.Deposit = inv.Deposit
	}
	return b
}

// FinalTotalAmount is the calculated amount plus everything in the cart.
func FinalTotalAmount(calc *backend.CheckoutCalculation, pending []PendingService) float64 {
	var base float64
	if calc != nil {
		base = calc.FinalAmount
	}
	return base + sumPending(pending)
}

func ChangeAmount(cashReceived, finalAmount float64) float64 {
	return math.Max(0, cashReceived-finalAmount)
}

// CheckPayment applies the payment gates in the order staff see them:
// housekeeping note, negative total, then method-specific checks.
func CheckPayment(finalAmount float64, method backend.PaymentMethod, cashReceived float64, hasNote bool) error {
	if !hasNote {
		return ErrNoteMissing
	}
	if finalAmount < 0 {
		return ErrNegativeAmount
	}
	if !method.Valid() {
		return ErrInvalidPaymentMethod
	}
	if method == backend.PaymentCash && cashReceived < finalAmount {
		return ErrInsufficientCash
	}
	return nil
}

// validAmount accepts finite, non-negative money inputs.
func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

func HoursLateLabel(hoursLate float64) string {
	if hoursLate <= 0 {
		return ""
	}
	return "Hours Late: " + strconv.FormatFloat(hoursLate, 'f', -1, 64) + " hours"
}

// BankAccount is the receiving account rendered into transfer QR codes.
type BankAccount struct {
	Bin         string
	Account     string
	AccountName string
	// QRTemplate takes the bank bin and account number, in that order.
	QRTemplate string
}

// QRCodeURL renders a VietQR image URL for the whole-unit amount.
func (a BankAccount) QRCodeURL(amount float64, description string) string {
	q := url.Values{}
	q.Set("amount", strconv.FormatInt(int64(math.Floor(amount)), 10))
	q.Set("addInfo", description)
	if a.AccountName != "" {
		q.Set("accountName", a.AccountName)
	}
	return fmt.Sprintf(a.QRTemplate, url.PathEscape(a.Bin), url.PathEscape(a.Account)) + "?" + q.Encode()
}

func TransferDescription(bookingID int64) string {
	return "Checkout booking " + strconv.FormatInt(bookingID, 10)
}

type SummaryLine struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// InvoiceView is everything the invoice screen and the PDF render.
type InvoiceView struct {
	BookingID           int64                 `json:"bookingId"`
	CustomerName        string                `json:"customerName"`
	RoomNumber          string                `json:"roomNumber"`
	CheckIn             backend.LocalTime     `json:"checkIn"`
	CheckOut            backend.LocalTime     `json:"checkOut"`
	ActualCheckoutTime  backend.LocalTime     `json:"actualCheckoutTime"`
	Scenario            string                `json:"scenario,omitempty"`
	ScenarioDescription string                `json:"scenarioDescription,omitempty"`
	HoursLate           float64               `json:"hoursLate"`
	HoursLateLabel      string                `json:"hoursLateLabel,omitempty"`
	UsedServices        []backend.InvoiceLine `json:"usedServices"`
	PendingServices     []PendingService      `json:"pendingServices"`
	Breakdown           Breakdown             `json:"breakdown"`
	Lines               []SummaryLine         `json:"lines"`
	Subtotal            float64               `json:"subtotal"`
	FinalAmount         float64               `json:"finalAmount"`

	PaymentMethod backend.PaymentMethod `json:"paymentMethod,omitempty"`
	CashReceived  float64               `json:"cashReceived"`
	ChangeAmount  float64               `json:"changeAmount"`
	QRCodeURL     string                `json:"qrCodeUrl,omitempty"`
	CanSubmit     bool                  `json:"canSubmit"`
	BlockReason   string                `json:"blockReason,omitempty"`
	GeneratedAt   time.Time             `json:"generatedAt"`
}

type invoiceInput struct {
	booking      *backend.BookingSummary
	invoice      *backend.InvoiceDetails
	calc         *backend.CheckoutCalculation
	pending      []PendingService
	penalty      float64
	actual       time.Time
	hasNote      bool
	method       backend.PaymentMethod
	cashReceived float64
	bank         BankAccount
	now          time.Time
}

func buildInvoiceView(in invoiceInput) InvoiceView {
	b := NewBreakdown(in.invoice, in.calc, in.pending, in.penalty)
	v := InvoiceView{
		ActualCheckoutTime: backend.NewLocalTime(in.actual),
		PendingServices:    in.pending,
		Breakdown:          b,
		Subtotal:           b.Subtotal(),
		FinalAmount:        b.FinalAmount(),
		PaymentMethod:      in.method,
		CashReceived:       in.cashReceived,
		GeneratedAt:        in.now,
	}
	if v.PendingServices == nil {
		v.PendingServices = []PendingService{}
	}
	if in.booking != nil {
		v.BookingID = in.booking.BookingID
		v.CustomerName = in.booking.CustomerName
		v.RoomNumber = in.booking.RoomNumber
		v.CheckIn = in.booking.CheckInDate
		v.CheckOut = in.booking.CheckOutDate
	}
	if in.invoice != nil {
		v.UsedServices = in.invoice.UsedServices
		if v.CustomerName == "" {
			v.CustomerName = in.invoice.CustomerName
		}
		if v.RoomNumber == "" {
			v.RoomNumber = in.invoice.RoomNumber
		}
	}
	if v.UsedServices == nil {
		v.UsedServices = []backend.InvoiceLine{}
	}
	if in.calc != nil {
		v.Scenario = in.calc.Scenario
		v.ScenarioDescription = in.calc.ScenarioDescription
		v.HoursLate = in.calc.HoursLate
		v.HoursLateLabel = HoursLateLabel(in.calc.HoursLate)
	}

	v.Lines = summaryLines(b)

	if in.method == backend.PaymentCash {
		v.ChangeAmount = ChangeAmount(in.cashReceived, v.FinalAmount)
	}
	if in.method == backend.PaymentBankTransfer && v.FinalAmount >= 0 {
		v.QRCodeURL = in.bank.QRCodeURL(v.FinalAmount, TransferDescription(v.BookingID))
	}

	if in.calc == nil {
		v.BlockReason = ErrCalculationPending.Error()
	} else if err := CheckPayment(v.FinalAmount, in.method, in.cashReceived, in.hasNote); err != nil {
		v.BlockReason = err.Error()
	} else {
		v.CanSubmit = true
	}
	return v
}

func summaryLines(b Breakdown) []SummaryLine {
	lines := []SummaryLine{
		{Label: "Room charges", Amount: b.RoomTotal},
		{Label: "Services used", Amount: b.ServiceTotal},
		{Label: "Subtotal", Amount: b.Subtotal()},
	}
	if b.PendingServiceTotal != 0 {
		lines = append(lines, SummaryLine{Label: "Additional services", Amount: b.PendingServiceTotal})
	}
	if b.LateCheckoutFee != 0 {
		lines = append(lines, SummaryLine{Label: "Late check-out fee", Amount: b.LateCheckoutFee})
	}
	if b.EarlyCheckoutPenalty != 0 {
		lines = append(lines, SummaryLine{Label: "Early check-out penalty", Amount: b.EarlyCheckoutPenalty})
	}
	if b.AdditionalPenalty != 0 {
		lines = append(lines, SummaryLine{Label: "Additional penalty", Amount: b.AdditionalPenalty})
	}
	lines = append(lines,
		SummaryLine{Label: "Deposit", Amount: -b.Deposit},
		SummaryLine{Label: "Amount due", Amount: b.FinalAmount()},
	)
	return lines
}
