package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is a non-2xx answer from the hotel backend. Body is the raw
// response text; it is shown to staff as-is.
type HTTPError struct {
	Operation string
	Status    int
	Body      string
}

func (e *HTTPError) Error() string {
	if msg := e.Message(); msg != "" {
		return msg
	}
	return fmt.Sprintf("%s: backend returned status %d", e.Operation, e.Status)
}

// Message is the server-provided text, trimmed.
func (e *HTTPError) Message() string {
	return strings.TrimSpace(e.Body)
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// ServerMessage returns the backend's text for err, or fallback when err did
// not come from a backend response or the body was empty.
func ServerMessage(err error, fallback string) string {
	var he *HTTPError
	if errors.As(err, &he) && he.Message() != "" {
		return he.Message()
	}
	return fallback
}
