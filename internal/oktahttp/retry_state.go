package oktahttp

import (
	"strconv"
	"time"
)

// clockNow is the time source for timer. Tests override it to drive the
// elapsed-budget logic deterministically without real sleeps.
var clockNow = time.Now

// timer is a monotonic elapsed-ms source anchored at the start of execute.
type timer struct {
	start time.Time
}

func newTimer() timer {
	return timer{start: clockNow()}
}

func (t timer) elapsed() time.Duration {
	return clockNow().Sub(t.start)
}

// retryState is the per-call state described in spec §3: attempt counter,
// original-request snapshots, remembered correlation ID, and start time.
// It lives only inside one execute invocation — never shared across calls.
type retryState struct {
	attempt int // starts at 0, incremented before each attempt
	clock   timer

	originalHeaders *Headers
	originalQuery   *QueryString

	correlationID string // remembered from the first failing response
}

func newRetryState(req *Request) *retryState {
	return &retryState{
		clock:           newTimer(),
		originalHeaders: req.Headers.Clone(),
		originalQuery:   req.Query.Clone(),
	}
}

// restore overwrites req's headers/query with the original snapshots and
// rewinds the body, undoing any mutation a prior attempt made (spec §4.1
// step 1, skipped on the first attempt).
func (s *retryState) restore(req *Request) error {
	req.Headers.ReplaceWith(s.originalHeaders)
	req.Query.ReplaceWith(s.originalQuery)

	return req.rewindBody()
}

// rememberCorrelationID captures the server-assigned request ID from the
// first observed response, if not already remembered.
func (s *retryState) rememberCorrelationID(resp *Response) {
	if s.correlationID != "" || resp == nil {
		return
	}

	s.correlationID = resp.RequestID()
}

// injectRetryHeaders sets X-Okta-Retry-For / X-Okta-Retry-Count on req for
// the upcoming attempt (spec §4.1 step 3). nextAttemptNumber is 1-based.
func (s *retryState) injectRetryHeaders(req *Request, nextAttemptNumber int) {
	if s.correlationID != "" {
		req.Headers.Set(RetryForHeader, s.correlationID)
	}

	if nextAttemptNumber >= 2 {
		req.Headers.Set(RetryCountHeader, strconv.Itoa(nextAttemptNumber))
	}
}
