// Package invoicepdf prints the check-out invoice.
package invoicepdf

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf/v2"

	"frontdesk/internal/backend"
	"frontdesk/internal/modules/checkout"
)

const dateLayout = "02-Jan-2006 15:04"

type Renderer struct {
	HotelName string
}

func NewRenderer(hotelName string) *Renderer {
	if hotelName == "" {
		hotelName = "Hotel"
	}
	return &Renderer{HotelName: hotelName}
}

func (r *Renderer) Render(v checkout.InvoiceView) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, tr(r.HotelName+" - Check-out Invoice"), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, "Generated: "+v.GeneratedAt.Format(dateLayout), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Booking", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Booking #%d", v.BookingID), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Room: "+v.RoomNumber), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Guest: "+v.CustomerName), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Actual check-out: "+formatTime(v.ActualCheckoutTime), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Check-in: "+formatTime(v.CheckIn), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Check-out: "+formatTime(v.CheckOut), "RB", 1, "L", false, 0, "")
	if v.ScenarioDescription != "" || v.HoursLateLabel != "" {
		text := v.ScenarioDescription
		if v.HoursLateLabel != "" {
			if text != "" {
				text += " / "
			}
			text += v.HoursLateLabel
		}
		pdf.CellFormat(190, 7, tr(text), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	if len(v.UsedServices) > 0 || len(v.PendingServices) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(190, 8, "Services", "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(90, 7, "Service", "1", 0, "C", true, 0, "")
		pdf.CellFormat(25, 7, "Qty", "1", 0, "C", true, 0, "")
		pdf.CellFormat(35, 7, "Unit price", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 7, "Total", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, s := range v.UsedServices {
			serviceRow(pdf, tr(s.ServiceName), s.Quantity, s.UnitPrice, s.TotalPrice)
		}
		for _, s := range v.PendingServices {
			serviceRow(pdf, tr(s.ServiceName+" (added at check-out)"), s.Quantity, s.PricePerUnit, s.Total)
		}
		pdf.Ln(5)
	}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Summary", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	for _, line := range v.Lines {
		pdf.CellFormat(140, 7, tr(line.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, money(line.Amount), "1", 1, "R", false, 0, "")
	}

	if v.PaymentMethod != "" {
		pdf.Ln(5)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(190, 8, "Payment", "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(140, 7, "Method", "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, string(v.PaymentMethod), "1", 1, "R", false, 0, "")
		if v.PaymentMethod == backend.PaymentCash {
			pdf.CellFormat(140, 7, "Cash received", "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 7, money(v.CashReceived), "1", 1, "R", false, 0, "")
			pdf.CellFormat(140, 7, "Change", "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 7, money(v.ChangeAmount), "1", 1, "R", false, 0, "")
		}
		if v.PaymentMethod == backend.PaymentBankTransfer {
			pdf.CellFormat(140, 7, "Transfer reference", "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 7, checkout.TransferDescription(v.BookingID), "1", 1, "R", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func serviceRow(pdf *gofpdf.Fpdf, name string, qty int, unit, total float64) {
	if len(name) > 48 {
		name = name[:45] + "..."
	}
	pdf.CellFormat(90, 6, name, "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 6, strconv.Itoa(qty), "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, money(unit), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, money(total), "1", 1, "R", false, 0, "")
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatTime(t backend.LocalTime) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}
