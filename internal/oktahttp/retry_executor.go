package oktahttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// Executor submits a single abstract request and returns its response.
// TransportExecutor implements this for real network calls; tests supply
// fakes.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// defaultMaxAttempts is spec §4.1's default attempt cap.
const defaultMaxAttempts = 4

// RetryExecutorConfig enumerates the knobs from spec §4.1.
type RetryExecutorConfig struct {
	// MaxAttempts caps the number of attempts. <= 0 disables the cap.
	MaxAttempts int

	// MaxElapsedMillis bounds total wall-clock time from entry of
	// Execute. <= 0 disables the cap.
	MaxElapsedMillis int64

	// BackoffStrategy, if set, overrides the default schedule for
	// non-429 retries.
	BackoffStrategy BackoffStrategy
}

// DefaultRetryExecutorConfig returns the spec's documented defaults:
// maxAttempts=4, elapsed budget disabled, no custom backoff.
func DefaultRetryExecutorConfig() RetryExecutorConfig {
	return RetryExecutorConfig{MaxAttempts: defaultMaxAttempts}
}

// RetryExecutor wraps an inner Executor with attempt accounting, elapsed
// budgeting, backoff, retryable classification, and retry-correlation
// headers (spec §4.1). It is safe for concurrent use: all per-call state
// lives in a stack-local retryState created fresh by each Execute call.
type RetryExecutor struct {
	inner  Executor
	cfg    RetryExecutorConfig
	logger *slog.Logger

	// sleepFunc waits for the given duration or until ctx is canceled.
	// Tests override this to skip real delays, mirroring the teacher's
	// injected sleepFunc.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewRetryExecutor builds a RetryExecutor. A nil logger falls back to
// slog.Default().
func NewRetryExecutor(inner Executor, cfg RetryExecutorConfig, logger *slog.Logger) *RetryExecutor {
	if logger == nil {
		logger = slog.Default()
	}

	return &RetryExecutor{
		inner:     inner,
		cfg:       cfg,
		logger:    logger,
		sleepFunc: sleepContext,
	}
}

// Execute runs the retry loop described in spec §4.1.
func (e *RetryExecutor) Execute(ctx context.Context, req *Request) (*Response, error) {
	state := newRetryState(req)

	// A body that cannot be rewound is consumed by the first attempt, so
	// only requests without a body or with a seekable one are retried.
	_, seekable := req.bodySeeker()
	replayable := req.Body == nil || seekable

	var priorResponse *Response

	for {
		isFirstAttempt := state.attempt == 0

		if !isFirstAttempt {
			if err := state.restore(req); err != nil {
				return nil, &TransportError{
					Message: fmt.Sprintf("rewinding request body for retry: %v", err),
					Cause:   err,
				}
			}

			delay, ok := e.computeBackoff(state, priorResponse)
			if !ok {
				if priorResponse != nil {
					return priorResponse, nil
				}

				return nil, &TransportError{
					Message: "cannot retry, next request would exceed configuration",
				}
			}

			if err := e.sleepFunc(ctx, delay); err != nil {
				return nil, &TransportError{
					Message: "interrupted while waiting to retry",
					Cause:   err,
				}
			}
		}

		state.injectRetryHeaders(req, state.attempt+1)
		state.attempt++

		resp, err := e.inner.Execute(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &TransportError{Message: "request canceled", Cause: ctx.Err()}
			}

			if replayable && e.shouldRetryError(err, state) {
				e.logger.Warn("retrying after transport error",
					slog.Int("attempt", state.attempt),
					slog.String("error", err.Error()),
				)

				continue
			}

			return nil, terminalError(err)
		}

		state.rememberCorrelationID(resp)

		if replayable && e.shouldRetryResponse(resp, state) {
			e.logger.Warn("retrying after response",
				slog.Int("attempt", state.attempt),
				slog.Int("status", resp.Status),
			)

			priorResponse = resp

			continue
		}

		return resp, nil
	}
}

// withinBudget implements spec §4.1's "Budget check": a retry is permitted
// when at least one cap is enabled and every enabled cap is still
// satisfied. The attempt comparison is "<=" and the elapsed comparison is
// "<" — intentionally asymmetric per spec §4.1.
func (e *RetryExecutor) withinBudget(state *retryState) bool {
	attemptCapEnabled := e.cfg.MaxAttempts > 0
	elapsedCapEnabled := e.cfg.MaxElapsedMillis > 0

	if !attemptCapEnabled && !elapsedCapEnabled {
		return false
	}

	if attemptCapEnabled && state.attempt > e.cfg.MaxAttempts {
		return false
	}

	if elapsedCapEnabled && state.clock.elapsed() >= time.Duration(e.cfg.MaxElapsedMillis)*time.Millisecond {
		return false
	}

	return true
}

// shouldRetryResponse implements spec §4.1's response retryable
// classification: status ∈ {429, 503, 504} and budget permits.
func (e *RetryExecutor) shouldRetryResponse(resp *Response, state *retryState) bool {
	return isRetryableStatus(resp.Status) && e.withinBudget(state)
}

// shouldRetryError implements spec §4.1's exception retryable
// classification, trusting the Retryable hint TransportExecutor attached
// at the transport boundary (spec §4.2: "carrying a retryable flag...
// so the RetryExecutor can also see the hint").
func (e *RetryExecutor) shouldRetryError(err error, state *retryState) bool {
	var te *TransportError
	if !errors.As(err, &te) || !te.Retryable {
		return false
	}

	return e.withinBudget(state)
}

// computeBackoff implements spec §4.1's "Backoff computation". attempt
// numbers passed to BackoffStrategy/defaultSchedule are 0-based retry
// indices (0 for the first retry), matching the teacher's calcBackoff
// convention.
func (e *RetryExecutor) computeBackoff(state *retryState, priorResponse *Response) (time.Duration, bool) {
	retryIndex := state.attempt - 1
	elapsed := state.clock.elapsed()

	elapsedEnabled := e.cfg.MaxElapsedMillis > 0

	timeLeft := time.Duration(math.MaxInt64)
	if elapsedEnabled {
		timeLeft = time.Duration(e.cfg.MaxElapsedMillis)*time.Millisecond - elapsed
	}

	var delay time.Duration

	switch {
	case e.cfg.BackoffStrategy != nil:
		delay = minDuration(e.cfg.BackoffStrategy.Backoff(retryIndex), timeLeft)

	case priorResponse != nil && priorResponse.Status == http.StatusTooManyRequests:
		resetDelay := parse429Delay(priorResponse)
		if resetDelay < 0 {
			// Unparseable (or, per spec §9's redesign note, a negative
			// computed delay from a server clock skew) falls back to
			// the default schedule instead of aborting.
			delay = minDuration(defaultSchedule(retryIndex), timeLeft)
		} else {
			if elapsedEnabled && elapsed+resetDelay >= time.Duration(e.cfg.MaxElapsedMillis)*time.Millisecond {
				return 0, false
			}

			delay = resetDelay
		}

	default:
		delay = minDuration(defaultSchedule(retryIndex), timeLeft)
	}

	if delay < 0 {
		return 0, false
	}

	return delay, true
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}

	return b
}

// terminalError normalizes an error returned by the inner executor into a
// TransportError with Retryable forced to false — the retry decision has
// already been made (spec §7: "the retry decision has already been made
// internally").
func terminalError(err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		clone := *te
		clone.Retryable = false

		return &clone
	}

	return &TransportError{Message: err.Error(), Cause: err}
}

// sleepContext waits for d or until ctx is canceled, re-surfacing the
// cancellation as an error (the Go analog of the source's interrupt
// convention: surfaces immediately, non-retryable).
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
