package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, nil)
}

func TestClient_SendsBearerTokenFromContext(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"bookingId":7,"bookingRoomId":70,"customerName":"An","roomNumber":"101","status":"CHECKED-IN","checkInDate":"2026-10-15T14:00:00"}]`))
	})

	ctx := WithToken(context.Background(), "staff-token")
	list, err := c.ListCheckOut(ctx)

	require.NoError(t, err)
	assert.Equal(t, "Bearer staff-token", gotAuth)
	require.Len(t, list, 1)
	assert.Equal(t, int64(7), list[0].BookingID)
	assert.Equal(t, StatusCheckedIn, list[0].Status)
	assert.Equal(t, 15, list[0].CheckInDate.Day())
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.ListCheckOut(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_InvoiceDetailsFallsBackOn404(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/invoices/view/booking/12" {
			http.Error(w, "no invoice", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"bookingId":12,"roomTotal":1000000,"serviceTotal":200000,"deposit":300000}`))
	})

	inv, err := c.InvoiceDetails(context.Background(), 12)

	require.NoError(t, err)
	assert.Equal(t, []string{"/api/invoices/view/booking/12", "/api/bookings/12/invoice-details"}, paths)
	assert.Equal(t, 1000000.0, inv.RoomTotal)
	assert.Equal(t, 300000.0, inv.Deposit)
}

func TestClient_InvoiceDetailsNoFallbackOnServerError(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.InvoiceDetails(context.Background(), 12)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
}

func TestClient_CalculateCheckoutSendsLocalTime(t *testing.T) {
	var body map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/bookings/5/calculate-checkout", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"scenario":"LATE","hoursLate":3,"lateCheckoutFee":150000,"finalAmount":1050000}`))
	})

	at := time.Date(2026, 10, 18, 15, 0, 0, 0, time.Local)
	calc, err := c.CalculateCheckout(context.Background(), 5, at)

	require.NoError(t, err)
	assert.Equal(t, "2026-10-18T15:00:00", body["actualCheckoutTime"])
	assert.Equal(t, 3.0, calc.HoursLate)
	assert.Equal(t, 150000.0, calc.LateCheckoutFee)
}

func TestClient_CheckOutSurfacesServerText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Booking is not checked in\n"))
	})

	err := c.CheckOut(context.Background(), 5, CheckOutPayload{PaymentMethod: PaymentCash})

	require.Error(t, err)
	assert.Equal(t, "Booking is not checked in", err.Error())
	assert.Equal(t, "Booking is not checked in", ServerMessage(err, "fallback"))
}

func TestClient_HousekeepingNote(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantNote    string
		wantFound   bool
	}{
		{"json object", http.StatusOK, "application/json", `{"note":"minibar checked"}`, "minibar checked", true},
		{"json content field", http.StatusOK, "application/json", `{"content":"towel missing"}`, "towel missing", true},
		{"plain text", http.StatusOK, "text/plain", "all good", "all good", true},
		{"empty body", http.StatusOK, "text/plain", "", "", true},
		{"not found", http.StatusNotFound, "text/plain", "no note", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/housekeeping/notes/booking-room/70", r.URL.Path)
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			note, found, err := c.HousekeepingNote(context.Background(), 70)

			require.NoError(t, err)
			assert.Equal(t, tt.wantNote, note)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestClient_ActiveTaskNotFoundIsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	task, err := c.ActiveTask(context.Background(), 70)
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestClient_UpdateTaskStatus(t *testing.T) {
	var got updateTaskStatusRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/housekeeping/tasks/9/status", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.UpdateTaskStatus(context.Background(), 9, TaskCancelled))
	assert.Equal(t, TaskCancelled, got.Status)
}

func TestLocalTime_RoundTrip(t *testing.T) {
	var lt LocalTime
	require.NoError(t, json.Unmarshal([]byte(`"2026-10-18T12:30:00"`), &lt))
	assert.Equal(t, 12, lt.Hour())

	raw, err := json.Marshal(lt)
	require.NoError(t, err)
	assert.Equal(t, `"2026-10-18T12:30:00"`, string(raw))

	require.NoError(t, json.Unmarshal([]byte(`null`), &lt))
	assert.True(t, lt.IsZero())
}
