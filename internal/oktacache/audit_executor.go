package oktacache

import (
	"context"
	"strconv"
	"time"

	"github.com/michaelmarley-sas/okta-sdk-go/internal/oktahttp"
)

// AuditingExecutor wraps an Executor — normally the TransportExecutor sitting
// inside a RetryExecutor — and appends one AttemptRecord per call to the
// attempt log. It reads the attempt number RetryExecutor already stamped
// onto the request's X-Okta-Retry-Count header instead of tracking its own
// counter, so it stays a strict observer: it has no way to influence whether
// a retry happens or what it targets.
type AuditingExecutor struct {
	inner oktahttp.Executor
	log   *AttemptLog
}

// NewAuditingExecutor builds an AuditingExecutor backed by log.
func NewAuditingExecutor(inner oktahttp.Executor, log *AttemptLog) *AuditingExecutor {
	return &AuditingExecutor{inner: inner, log: log}
}

// Execute delegates to inner and records the outcome before returning.
// Audit logging is best-effort: a failure to write the log never replaces
// or delays the caller's actual result.
func (e *AuditingExecutor) Execute(ctx context.Context, req *oktahttp.Request) (*oktahttp.Response, error) {
	rec := AttemptRecord{
		Timestamp: time.Now(),
		Method:    req.Method,
		Path:      req.Path,
		Attempt:   attemptNumber(req),
	}

	resp, err := e.inner.Execute(ctx, req)
	if err != nil {
		rec.ErrorKind = "transport_error"
	} else {
		rec.Status = resp.Status
	}

	_ = e.log.Record(ctx, rec)

	return resp, err
}

// attemptNumber reads the 1-based attempt count RetryExecutor stamps onto
// retried requests, defaulting to 1 for a first attempt (the header is only
// set starting on the second attempt — see retry_state.go).
func attemptNumber(req *oktahttp.Request) int {
	raw := req.Headers.Get(oktahttp.RetryCountHeader)
	if raw == "" {
		return 1
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}

	return n
}
