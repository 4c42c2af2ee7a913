package checkout

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/backend"
)

func TestFinalTotalAmount_IsCalculationPlusCart(t *testing.T) {
	cases := []struct {
		name    string
		calc    *backend.CheckoutCalculation
		pending []PendingService
		want    float64
	}{
		{"no cart", &backend.CheckoutCalculation{FinalAmount: 900000}, nil, 900000},
		{"one line", &backend.CheckoutCalculation{FinalAmount: 900000}, []PendingService{{Total: 50000}}, 950000},
		{"many lines", &backend.CheckoutCalculation{FinalAmount: 100}, []PendingService{{Total: 10}, {Total: 20}, {Total: 30}}, 160},
		{"negative base", &backend.CheckoutCalculation{FinalAmount: -500}, []PendingService{{Total: 200}}, -300},
		{"no calculation", nil, []PendingService{{Total: 200}}, 200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FinalTotalAmount(tc.calc, tc.pending))
		})
	}
}

func TestChangeAmount_NeverNegative(t *testing.T) {
	for _, tc := range []struct{ cash, final, want float64 }{
		{1000000, 900000, 100000},
		{900000, 900000, 0},
		{500000, 900000, 0},
		{0, 900000, 0},
		{100, -50, 150},
	} {
		assert.Equal(t, tc.want, ChangeAmount(tc.cash, tc.final), "cash=%v final=%v", tc.cash, tc.final)
	}
}

func TestBreakdown_OnTimeCheckout(t *testing.T) {
	calc := &backend.CheckoutCalculation{
		RoomTotal:    1000000,
		ServiceTotal: 200000,
		Deposit:      300000,
	}
	b := NewBreakdown(nil, calc, nil, 0)

	assert.Equal(t, 1200000.0, b.Subtotal())
	assert.Equal(t, 900000.0, b.FinalAmount())
}

func TestBreakdown_LateCheckout(t *testing.T) {
	calc := &backend.CheckoutCalculation{
		RoomTotal:       1000000,
		ServiceTotal:    200000,
		Deposit:         300000,
		HoursLate:       3,
		LateCheckoutFee: 150000,
	}
	v := buildInvoiceView(invoiceInput{calc: calc, hasNote: true})

	assert.Equal(t, 1050000.0, v.FinalAmount)
	assert.Equal(t, "Hours Late: 3 hours", v.HoursLateLabel)
	assert.Contains(t, v.Lines, SummaryLine{Label: "Late check-out fee", Amount: 150000})
}

func TestBreakdown_FallsBackToInvoice(t *testing.T) {
	inv := &backend.InvoiceDetails{RoomTotal: 500, ServiceTotal: 100, Deposit: 50}
	b := NewBreakdown(inv, nil, []PendingService{{Total: 25}}, 10)

	assert.Equal(t, 600.0, b.Subtotal())
	assert.Equal(t, 585.0, b.FinalAmount())
}

func TestHoursLateLabel(t *testing.T) {
	assert.Equal(t, "", HoursLateLabel(0))
	assert.Equal(t, "Hours Late: 3 hours", HoursLateLabel(3))
	assert.Equal(t, "Hours Late: 1.5 hours", HoursLateLabel(1.5))
}

func TestCheckPayment(t *testing.T) {
	cases := []struct {
		name    string
		final   float64
		method  backend.PaymentMethod
		cash    float64
		hasNote bool
		want    error
	}{
		{"insufficient cash", 900000, backend.PaymentCash, 500000, true, ErrInsufficientCash},
		{"exact cash", 900000, backend.PaymentCash, 900000, true, nil},
		{"cash with change", 900000, backend.PaymentCash, 1000000, true, nil},
		{"bank transfer ignores cash", 900000, backend.PaymentBankTransfer, 0, true, nil},
		{"negative total with cash", -100, backend.PaymentCash, 1000, true, ErrNegativeAmount},
		{"negative total with transfer", -100, backend.PaymentBankTransfer, 0, true, ErrNegativeAmount},
		{"no note", 900000, backend.PaymentCash, 1000000, false, ErrNoteMissing},
		{"no method", 900000, "", 0, true, ErrInvalidPaymentMethod},
		{"unknown method", 900000, "Card", 0, true, ErrInvalidPaymentMethod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPayment(tc.final, tc.method, tc.cash, tc.hasNote)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestInvoiceView_InsufficientCashBlocks(t *testing.T) {
	calc := &backend.CheckoutCalculation{RoomTotal: 1000000, ServiceTotal: 200000, Deposit: 300000}
	v := buildInvoiceView(invoiceInput{calc: calc, hasNote: true, method: backend.PaymentCash, cashReceived: 500000})

	assert.Equal(t, 900000.0, v.FinalAmount)
	assert.Equal(t, 0.0, v.ChangeAmount)
	assert.False(t, v.CanSubmit)
	assert.Equal(t, ErrInsufficientCash.Error(), v.BlockReason)
}

func TestInvoiceView_SufficientCash(t *testing.T) {
	calc := &backend.CheckoutCalculation{RoomTotal: 1000000, ServiceTotal: 200000, Deposit: 300000}
	v := buildInvoiceView(invoiceInput{calc: calc, hasNote: true, method: backend.PaymentCash, cashReceived: 1000000})

	assert.Equal(t, 100000.0, v.ChangeAmount)
	assert.True(t, v.CanSubmit)
	assert.Empty(t, v.BlockReason)
}

func TestInvoiceView_NegativeTotalBlocksEvenWithCash(t *testing.T) {
	calc := &backend.CheckoutCalculation{RoomTotal: 100, Deposit: 500}
	for _, m := range []backend.PaymentMethod{backend.PaymentCash, backend.PaymentBankTransfer} {
		v := buildInvoiceView(invoiceInput{calc: calc, hasNote: true, method: m, cashReceived: 1000})
		assert.False(t, v.CanSubmit, string(m))
		assert.Equal(t, ErrNegativeAmount.Error(), v.BlockReason)
		assert.Empty(t, v.QRCodeURL)
	}
}

func TestInvoiceView_BankTransferQRCode(t *testing.T) {
	bank := BankAccount{Bin: "970422", Account: "0123456789", AccountName: "SEASIDE HOTEL", QRTemplate: "https://img.vietqr.io/image/%s-%s-compact2.png"}
	calc := &backend.CheckoutCalculation{RoomTotal: 900000.75}
	v := buildInvoiceView(invoiceInput{
		booking: &backend.BookingSummary{BookingID: 42, CustomerName: "Lan", RoomNumber: "301"},
		calc:    calc,
		hasNote: true,
		method:  backend.PaymentBankTransfer,
		bank:    bank,
		now:     time.Now(),
	})

	require.True(t, v.CanSubmit)
	u, err := url.Parse(v.QRCodeURL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(v.QRCodeURL, "https://img.vietqr.io/image/970422-0123456789-compact2.png?"))
	assert.Equal(t, "900000", u.Query().Get("amount"))
	assert.Equal(t, "Checkout booking 42", u.Query().Get("addInfo"))
	assert.Equal(t, "SEASIDE HOTEL", u.Query().Get("accountName"))
	assert.Equal(t, "Lan", v.CustomerName)
}

func TestInvoiceView_PendingCalculation(t *testing.T) {
	v := buildInvoiceView(invoiceInput{hasNote: true, method: backend.PaymentBankTransfer})
	assert.False(t, v.CanSubmit)
	assert.Equal(t, ErrCalculationPending.Error(), v.BlockReason)
	assert.NotNil(t, v.PendingServices)
	assert.NotNil(t, v.UsedServices)
}
