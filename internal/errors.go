package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const networkErrorMessage = "Network error"

var (
	ErrPlayerNotFound   = errors.New("player not found")
	ErrSchedulerStopped = errors.New("scheduler stopped")
	ErrTaskPanicked     = errors.New("scheduled task panicked")
	ErrWindowWait       = errors.New("provider window stayed full")
)

// NetworkError means the request never produced a response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return networkErrorMessage
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a response carrying a non-2xx status.
type HTTPError struct {
	Message    string
	StatusCode int
	Body       string
}

func newHTTPError(statusCode int, body string) *HTTPError {
	return &HTTPError{
		Message:    fmt.Sprintf("Response code %d (%s)", statusCode, http.StatusText(statusCode)),
		StatusCode: statusCode,
		Body:       body,
	}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %d", e.Message, e.StatusCode)
}

// ValidationError reports a failed startup check of operator configuration.
type ValidationError struct {
	Target string
	Value  string
	Detail string
	Err    error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("Invalid ")
	b.WriteString(e.Target)
	if e.Value != "" {
		b.WriteString(": ")
		b.WriteString(e.Value)
	}
	b.WriteString(".")
	if e.Detail != "" {
		b.WriteString(" ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return e.Message
}

func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// upstreamDetail prefers the response body over the error text, the way
// operators expect to see the platform's own explanation.
func upstreamDetail(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && strings.TrimSpace(httpErr.Body) != "" {
		return strings.TrimSpace(httpErr.Body)
	}
	return err.Error()
}
