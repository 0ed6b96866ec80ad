package oktahttp

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Sentinel errors for HTTP status classification. Use errors.Is to check.
var (
	ErrBadRequest      = errors.New("oktahttp: bad request")
	ErrUnauthorized    = errors.New("oktahttp: unauthorized")
	ErrForbidden       = errors.New("oktahttp: forbidden")
	ErrNotFound        = errors.New("oktahttp: not found")
	ErrTooManyRequests = errors.New("oktahttp: too many requests")
	ErrServerError     = errors.New("oktahttp: server error")
)

// classifyHTTPStatus maps a status to one of the sentinel errors above, or
// nil for any status without a sentinel (2xx/3xx and unlisted 4xx codes).
func classifyHTTPStatus(code int) error {
	switch {
	case code == http.StatusBadRequest:
		return ErrBadRequest
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		return ErrTooManyRequests
	case code >= http.StatusInternalServerError:
		return ErrServerError
	default:
		return nil
	}
}

// errorKind tags a transport-level failure, replacing the source's
// instanceof checks on SocketException/SocketTimeoutException/
// NoHttpResponseException/ConnectTimeoutException (spec §9) with a single
// classification performed once at the transport boundary.
type errorKind int

const (
	errOther errorKind = iota
	errConnectTimeout
	errReadTimeout
	errNoResponse
	errOtherSocket
)

// retryable reports whether this error kind is eligible for retry,
// independent of budget (spec §4.1 "Retryable classification").
func (k errorKind) retryable() bool {
	switch k {
	case errConnectTimeout, errReadTimeout, errNoResponse, errOtherSocket:
		return true
	default:
		return false
	}
}

// TransportError is the single error kind surfaced to callers (spec §7):
// a human message, the underlying cause, and an advisory Retryable hint.
// The retry decision itself has already been made internally by the time
// this is constructed.
type TransportError struct {
	Message   string
	Cause     error
	Retryable bool

	// StatusCode is the HTTP status that produced this error, or 0 when
	// the error originated below the HTTP layer (e.g. a socket error).
	StatusCode int
	RequestID  string

	sentinel error
}

func (e *TransportError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("oktahttp: %s (request-id: %s)", e.Message, e.RequestID)
	}

	return "oktahttp: " + e.Message
}

func (e *TransportError) Unwrap() error {
	if e.sentinel != nil {
		return e.sentinel
	}

	return e.Cause
}

// newStatusError builds a TransportError for a terminal (non-retried or
// retry-exhausted) HTTP response.
func newStatusError(resp *Response, body []byte) *TransportError {
	return &TransportError{
		Message:    fmt.Sprintf("HTTP %d: %s", resp.Status, summarizeErrorBody(body)),
		Retryable:  false,
		StatusCode: resp.Status,
		RequestID:  resp.RequestID(),
		sentinel:   classifyHTTPStatus(resp.Status),
	}
}

// newNetworkError wraps a transport-level failure, tagging it with the
// classified error kind's retryable hint.
func newNetworkError(kind errorKind, cause error) *TransportError {
	return &TransportError{
		Message:   cause.Error(),
		Cause:     cause,
		Retryable: kind.retryable(),
	}
}

// summarizeErrorBody extracts errorSummary/errorCode from an Okta JSON error
// body via a lightweight field lookup (gjson), rather than decoding the
// full Okta error schema — that belongs to the REST/resource layer, which
// is out of scope here (spec §1). Falls back to the raw body, truncated,
// when the fields are absent or the body isn't JSON.
func summarizeErrorBody(body []byte) string {
	const maxRawLen = 200

	if len(body) == 0 {
		return "(empty body)"
	}

	summary := gjson.GetBytes(body, "errorSummary")
	if summary.Exists() && summary.String() != "" {
		code := gjson.GetBytes(body, "errorCode").String()
		if code != "" {
			return fmt.Sprintf("%s (%s)", summary.String(), code)
		}

		return summary.String()
	}

	raw := string(body)
	if len(raw) > maxRawLen {
		raw = raw[:maxRawLen] + "..."
	}

	return raw
}

// isRetryableStatus reports whether a response status is retryable
// (spec §4.1: "A response is retryable iff its status ∈ {429, 503, 504}").
func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
