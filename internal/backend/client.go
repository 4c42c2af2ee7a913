package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"frontdesk/internal/metrics"
)

const maxBodyBytes = 4 << 20

type tokenKey struct{}

// WithToken attaches the staff member's bearer token to ctx. Every request
// the Client makes with that context carries it.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

type bearerTransport struct {
	base http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if tok := TokenFrom(req.Context()); tok != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return t.base.RoundTrip(req)
}

// Client talks to the hotel REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	loggerf func(format string, args ...interface{})
}

func NewClient(baseURL string, timeout time.Duration, loggerf func(format string, args ...interface{})) *Client {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: &bearerTransport{base: http.DefaultTransport},
		},
		loggerf: loggerf,
	}
}

func (c *Client) ListCheckOut(ctx context.Context) ([]BookingSummary, error) {
	var out []BookingSummary
	if err := c.doJSON(ctx, "list_check_out", http.MethodGet, "/api/bookings/check-out-list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InvoiceDetails reads the invoice view and falls back to the booking's
// invoice-details endpoint when no invoice exists yet.
func (c *Client) InvoiceDetails(ctx context.Context, bookingID int64) (*InvoiceDetails, error) {
	var out InvoiceDetails
	err := c.doJSON(ctx, "invoice_view", http.MethodGet, "/api/invoices/view/booking/"+id(bookingID), nil, &out)
	if err == nil {
		return &out, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	c.loggerf("level=info msg=invoice view not found, using fallback booking_id=%d", bookingID)
	out = InvoiceDetails{}
	if err := c.doJSON(ctx, "invoice_details", http.MethodGet, "/api/bookings/"+id(bookingID)+"/invoice-details", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CalculateCheckout(ctx context.Context, bookingID int64, actual time.Time) (*CheckoutCalculation, error) {
	var out CheckoutCalculation
	body := calculateRequest{ActualCheckoutTime: NewLocalTime(actual)}
	if err := c.doJSON(ctx, "calculate_checkout", http.MethodPost, "/api/bookings/"+id(bookingID)+"/calculate-checkout", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CheckOut(ctx context.Context, bookingID int64, payload CheckOutPayload) error {
	return c.doJSON(ctx, "check_out", http.MethodPost, "/api/bookings/"+id(bookingID)+"/check-out", payload, nil)
}

// HousekeepingNote returns the free-text note for a booking room. found is
// false when the backend answers 404.
func (c *Client) HousekeepingNote(ctx context.Context, bookingRoomID int64) (note string, found bool, err error) {
	body, header, err := c.do(ctx, "housekeeping_note", http.MethodGet, "/api/housekeeping/notes/booking-room/"+id(bookingRoomID), nil)
	if err != nil {
		if IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return parseNote(body, header.Get("Content-Type")), true, nil
}

// ActiveTask returns nil without error when the room has no task.
func (c *Client) ActiveTask(ctx context.Context, bookingRoomID int64) (*HousekeepingTask, error) {
	var out HousekeepingTask
	err := c.doJSON(ctx, "active_task", http.MethodGet, "/api/housekeeping/tasks/booking-room/"+id(bookingRoomID)+"/active", nil, &out)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if out.TaskID == 0 {
		return nil, nil
	}
	return &out, nil
}

func (c *Client) AssignTask(ctx context.Context, req AssignTaskRequest) (*HousekeepingTask, error) {
	var out HousekeepingTask
	if err := c.doJSON(ctx, "assign_task", http.MethodPost, "/api/housekeeping/tasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTaskStatus(ctx context.Context, taskID int64, status TaskStatus) error {
	return c.doJSON(ctx, "update_task_status", http.MethodPut, "/api/housekeeping/tasks/"+id(taskID)+"/status", updateTaskStatusRequest{Status: status}, nil)
}

func (c *Client) Housekeepers(ctx context.Context) ([]Staff, error) {
	var out []Staff
	if err := c.doJSON(ctx, "housekeepers", http.MethodGet, "/api/housekeeping/staff", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Services(ctx context.Context) ([]HotelService, error) {
	var out []HotelService
	if err := c.doJSON(ctx, "services", http.MethodGet, "/api/services", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out interface{}) error {
	body, _, err := c.do(ctx, op, method, path, in)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in interface{}) ([]byte, http.Header, error) {
	var reqBody io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(op, "0").Inc()
		c.loggerf("level=error msg=backend request failed op=%s method=%s path=%s err=%v", op, method, path, err)
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	metrics.BackendRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode != http.StatusNotFound {
			c.loggerf("level=error msg=backend error response op=%s method=%s path=%s status=%d body=%q", op, method, path, resp.StatusCode, string(body))
		}
		return nil, nil, &HTTPError{Operation: op, Status: resp.StatusCode, Body: string(body)}
	}
	return body, resp.Header, nil
}

// parseNote accepts a JSON object ({"note": ...} or {"content": ...}), a
// JSON string, or plain text.
func parseNote(body []byte, contentType string) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if strings.Contains(contentType, "json") || trimmed[0] == '{' || trimmed[0] == '"' {
		var obj struct {
			Note    *string `json:"note"`
			Content *string `json:"content"`
		}
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			if obj.Note != nil {
				return *obj.Note
			}
			if obj.Content != nil {
				return *obj.Content
			}
			return ""
		}
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(body)
}

func id(v int64) string { return strconv.FormatInt(v, 10) }
