package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrModelUnavailable matches a *StatusError carrying HTTP 404, which both
// providers return when the requested model is not installed or not served.
var ErrModelUnavailable = errors.New("model unavailable")

// TransportError covers connection failures, timeouts and cancellation.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx answer from the provider.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d %s", e.Provider, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrModelUnavailable && e.Code == http.StatusNotFound
}

// MalformedResponseError means the provider answered 2xx but its envelope
// could not be decoded into generated text.
type MalformedResponseError struct {
	Provider string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Provider, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// truncate keeps error bodies readable in logs.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
