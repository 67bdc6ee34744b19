package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/grc/pkg/httpx"
)

// ErrorKind classifies every failure the auth service reports.
type ErrorKind string

const (
	KindClientInput           ErrorKind = "client_input"
	KindAuthenticationFailure ErrorKind = "authentication_failure"
	KindAuthorizationDenied   ErrorKind = "authorization_denied"
	KindRateLimited           ErrorKind = "rate_limited"
	KindUpstreamFailure       ErrorKind = "upstream_failure"
)

// StatusCode is the HTTP status a kind is reported with.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindClientInput:
		return http.StatusBadRequest
	case KindAuthenticationFailure:
		return http.StatusUnauthorized
	case KindAuthorizationDenied:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// kindForStatus is the inverse of StatusCode, used when decoding responses.
func kindForStatus(code int) ErrorKind {
	switch code {
	case http.StatusBadRequest:
		return KindClientInput
	case http.StatusUnauthorized:
		return KindAuthenticationFailure
	case http.StatusForbidden:
		return KindAuthorizationDenied
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindUpstreamFailure
	}
}

// APIError is the error shape shared by the server (to write responses) and
// the SDK client (to report them).
type APIError struct {
	Kind    ErrorKind `json:"-"`
	Message string    `json:"message"`

	// RemainingSeconds is set for lockouts and rate limits.
	RemainingSeconds int `json:"remaining_seconds,omitempty"`

	// LockedUntil is the RFC3339 end of a lockout.
	LockedUntil string `json:"locked_until,omitempty"`

	// LicenseError carries the license service's reason, already sanitised.
	LicenseError string `json:"license_error,omitempty"`

	// Attempts is the failed-attempt count after a bad password.
	Attempts int `json:"attempts,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// StatusCode returns the HTTP status for this error.
func (e *APIError) StatusCode() int { return e.Kind.StatusCode() }

// WriteError writes the error envelope to w.
func (e *APIError) WriteError(w http.ResponseWriter) {
	if e.Kind == KindRateLimited && e.RemainingSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(e.RemainingSeconds))
	}
	if e.Kind == KindAuthenticationFailure {
		w.Header().Set("WWW-Authenticate", `Bearer realm="grc"`)
	}
	httpx.WriteJSON(w, e.StatusCode(), errorEnvelope{Status: "error", APIError: e})
}

type errorEnvelope struct {
	Status string `json:"status"`
	*APIError
}

// NewAPIError creates an APIError of the given kind.
func NewAPIError(kind ErrorKind, message string) *APIError {
	return &APIError{Kind: kind, Message: message}
}

func ClientInput(message string) *APIError {
	return NewAPIError(KindClientInput, message)
}

func AuthenticationFailure(message string) *APIError {
	return NewAPIError(KindAuthenticationFailure, message)
}

func AuthorizationDenied(message string) *APIError {
	return NewAPIError(KindAuthorizationDenied, message)
}

// RateLimited reports a throttled request with the seconds left until retry.
func RateLimited(message string, remainingSeconds int) *APIError {
	e := NewAPIError(KindRateLimited, message)
	e.RemainingSeconds = max(remainingSeconds, 1)
	return e
}

func UpstreamFailure(message string) *APIError {
	return NewAPIError(KindUpstreamFailure, message)
}

var (
	// ErrInternal is the generic answer for unexpected failures.
	ErrInternal = UpstreamFailure("Internal server error")

	// ErrInvalidBody is returned when a JSON body cannot be parsed.
	ErrInvalidBody = ClientInput("Invalid request body")
)

// parseErrorResponse turns a non-2xx response into an *APIError.
// Returns nil if the response indicates success (2xx status code).
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{Kind: kindForStatus(resp.StatusCode)}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return apiErr
}
