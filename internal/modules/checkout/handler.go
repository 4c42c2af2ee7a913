package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"frontdesk/internal/backend"
	"frontdesk/internal/pkg/response"
)

type Handler struct {
	service *Service
	pdf     InvoiceRenderer
}

func NewHandler(service *Service, pdf InvoiceRenderer) *Handler {
	return &Handler{service: service, pdf: pdf}
}

func requestContext(c *gin.Context) context.Context {
	return backend.WithToken(c.Request.Context(), c.GetString("token"))
}

func (h *Handler) ListBookings(c *gin.Context) {
	search := c.Query("search")
	list, err := h.service.FetchCheckOutList(requestContext(c), c.GetInt64("user_id"), search)
	if err != nil {
		writeBackendError(c, err, "Failed to load check-out list")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list, "search": search})
}

func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.service.ServiceCatalog(requestContext(c), c.Query("refresh") == "true")
	if err != nil {
		writeBackendError(c, err, "Failed to load services")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"services": services})
}

func (h *Handler) ListAttempts(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("bookingId"), 10, 64)
	if err != nil || bookingID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}
	attempts, err := h.service.Attempts(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load checkout attempts")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

func (h *Handler) GetSession(c *gin.Context) {
	response.Success(c, http.StatusOK, h.service.View(c.GetInt64("user_id")))
}

func (h *Handler) OpenPanel(c *gin.Context) {
	var req OpenPanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err, "bookingId is required")
		return
	}
	view, err := h.service.OpenPanel(requestContext(c), c.GetInt64("user_id"), req.BookingID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) ClosePanel(c *gin.Context) {
	view, err := h.service.ClosePanel(c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) ChangeTime(c *gin.Context) {
	var req ChangeTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err, "actualCheckoutTime is required")
		return
	}
	at, err := backend.ParseLocalTime(req.ActualCheckoutTime)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid actualCheckoutTime")
		return
	}
	view, err := h.service.ChangeCheckoutTime(requestContext(c), c.GetInt64("user_id"), at)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) SetPenalty(c *gin.Context) {
	var req PenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err, "penalty must be a non-negative number")
		return
	}
	view, err := h.service.SetPenalty(c.GetInt64("user_id"), *req.Penalty)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) AddService(c *gin.Context) {
	var req AddServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err, "Invalid service line")
		return
	}
	view, err := h.service.AddService(c.GetInt64("user_id"), AddServiceInput{
		ServiceID:    req.ServiceID,
		ServiceName:  req.ServiceName,
		PricePerUnit: *req.PricePerUnit,
		Quantity:     req.Quantity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) RemoveService(c *gin.Context) {
	serviceID, err := strconv.ParseInt(c.Param("serviceId"), 10, 64)
	if err != nil || serviceID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid service ID")
		return
	}
	view, err := h.service.RemoveService(c.GetInt64("user_id"), serviceID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) OpenInvoice(c *gin.Context) {
	view, err := h.service.OpenInvoice(c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) CloseInvoice(c *gin.Context) {
	view, err := h.service.CloseInvoice(c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) GetInvoice(c *gin.Context) {
	inv, ok := h.invoice(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, inv)
}

func (h *Handler) GetInvoicePDF(c *gin.Context) {
	inv, ok := h.invoice(c)
	if !ok {
		return
	}
	if h.pdf == nil {
		response.Error(c, http.StatusNotImplemented, "PDF_UNAVAILABLE", "Invoice printing is not configured")
		return
	}
	doc, err := h.pdf.Render(inv)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render invoice")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="invoice-booking-%d.pdf"`, inv.BookingID))
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (h *Handler) invoice(c *gin.Context) (InvoiceView, bool) {
	var cash float64
	if raw := c.Query("cashReceived"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || !validAmount(v) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid cashReceived")
			return InvoiceView{}, false
		}
		cash = v
	}
	inv, err := h.service.Invoice(c.GetInt64("user_id"), backend.PaymentMethod(c.Query("method")), cash)
	if err != nil {
		writeError(c, err)
		return InvoiceView{}, false
	}
	return inv, true
}

func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err, "paymentMethod is required")
		return
	}
	result, err := h.service.Submit(requestContext(c), c.GetInt64("user_id"), SubmitInput{
		PaymentMethod: backend.PaymentMethod(req.PaymentMethod),
		CashReceived:  req.CashReceived,
		ConfirmRetry:  req.ConfirmRetry,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

func writeError(c *gin.Context, err error) {
	var se *SubmitError
	switch {
	case errors.As(err, &se):
		status := http.StatusBadGateway
		if code := backend.StatusOf(se.Err); code >= 400 && code < 500 {
			status = http.StatusUnprocessableEntity
		}
		code := "CHECKOUT_FAILED"
		if se.Unknown {
			code = "CHECKOUT_OUTCOME_UNKNOWN"
		}
		response.Error(c, status, code, se.Message)
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrInvalidPaymentMethod):
		response.Error(c, http.StatusBadRequest, "INVALID_PAYMENT_METHOD", err.Error())
	case errors.Is(err, ErrPanelClosed):
		response.Error(c, http.StatusConflict, "PANEL_CLOSED", err.Error())
	case errors.Is(err, ErrInvalidPhase):
		response.Error(c, http.StatusConflict, "INVALID_PHASE", err.Error())
	case errors.Is(err, ErrSubmitting):
		response.Error(c, http.StatusConflict, "SUBMISSION_IN_PROGRESS", err.Error())
	case errors.Is(err, ErrReadinessChecking):
		response.Error(c, http.StatusConflict, "READINESS_CHECKING", err.Error())
	case errors.Is(err, ErrPossibleDuplicate):
		response.Error(c, http.StatusConflict, "POSSIBLE_DUPLICATE", err.Error())
	case errors.Is(err, ErrBookingNotEligible):
		response.Error(c, http.StatusNotFound, "BOOKING_NOT_ELIGIBLE", err.Error())
	case errors.Is(err, ErrServiceNotInCart):
		response.Error(c, http.StatusNotFound, "SERVICE_NOT_IN_CART", err.Error())
	case errors.Is(err, ErrCalculationPending):
		response.Error(c, http.StatusUnprocessableEntity, "CALCULATION_PENDING", err.Error())
	case errors.Is(err, ErrNoteMissing):
		response.Error(c, http.StatusUnprocessableEntity, "HOUSEKEEPING_NOTE_MISSING", err.Error())
	case errors.Is(err, ErrNegativeAmount):
		response.Error(c, http.StatusUnprocessableEntity, "NEGATIVE_AMOUNT", err.Error())
	case errors.Is(err, ErrInsufficientCash):
		response.Error(c, http.StatusUnprocessableEntity, "INSUFFICIENT_CASH", err.Error())
	default:
		writeBackendError(c, err, "Request failed")
	}
}

// writeBackendError passes the backend's own message through to staff.
func writeBackendError(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)
	var he *backend.HTTPError
	if errors.As(err, &he) {
		status := http.StatusBadGateway
		if he.Status >= 400 && he.Status < 500 {
			status = he.Status
		}
		response.Error(c, status, "BACKEND_ERROR", backend.ServerMessage(err, fallback))
		return
	}
	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
}
