package oktahttp

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedExecutor replays a fixed sequence of responses/errors and records
// every request it saw, including its headers (so tests can assert on
// X-Okta-Retry-Count/X-Okta-Retry-For injection).
type scriptedExecutor struct {
	responses []*Response
	errs      []error

	calls       int
	seenHeaders []*Headers
}

func newScriptedExecutor() *scriptedExecutor {
	return &scriptedExecutor{}
}

func (s *scriptedExecutor) Execute(_ context.Context, req *Request) (*Response, error) {
	idx := s.calls
	s.calls++
	s.seenHeaders = append(s.seenHeaders, req.Headers.Clone())

	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}

	if idx < len(s.responses) {
		return s.responses[idx], nil
	}

	return s.responses[len(s.responses)-1], nil
}

func noDelaySleep(context.Context, time.Duration) error { return nil }

func okResponse(status int) *Response {
	return NewResponse(status, NewHeaders(), -1, nil)
}

// Scenario 1: no retry on immediate success; no retry headers added.
func TestRetryExecutor_ImmediateSuccess(t *testing.T) {
	inner := newScriptedExecutor()
	inner.responses = []*Response{okResponse(http.StatusOK)}

	exec := NewRetryExecutor(inner, DefaultRetryExecutorConfig(), nil)
	exec.sleepFunc = noDelaySleep

	resp, err := exec.Execute(context.Background(), NewRequest(http.MethodGet, "/api/v1/users"))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 1, inner.calls)
	assert.Empty(t, inner.seenHeaders[0].Get(RetryCountHeader))
}

// Scenario 2: maxAttempts=4 allows one attempt beyond the cap (spec §4.1's
// intentionally asymmetric "<=" attempt comparison), so four consecutive
// 503s are followed by a fifth, successful call.
func TestRetryExecutor_RetriesThroughCapThenSucceeds(t *testing.T) {
	inner := newScriptedExecutor()
	inner.responses = []*Response{
		okResponse(http.StatusServiceUnavailable),
		okResponse(http.StatusServiceUnavailable),
		okResponse(http.StatusServiceUnavailable),
		okResponse(http.StatusServiceUnavailable),
		okResponse(http.StatusOK),
	}

	cfg := DefaultRetryExecutorConfig()
	cfg.MaxAttempts = 4
	cfg.BackoffStrategy = ZeroBackoff

	exec := NewRetryExecutor(inner, cfg, nil)
	exec.sleepFunc = noDelaySleep

	resp, err := exec.Execute(context.Background(), NewRequest(http.MethodGet, "/api/v1/users"))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 5, inner.calls)

	for i, n := range []string{"", "2", "3", "4", "5"} {
		assert.Equal(t, n, inner.seenHeaders[i].Get(RetryCountHeader), "call %d", i+1)
	}
}

// A lower cap (maxAttempts=2) exhausts one call earlier, returning the last
// 503 response unchanged rather than an error.
func TestRetryExecutor_ExhaustsAttemptCap_ReturnsLastResponse(t *testing.T) {
	inner := newScriptedExecutor()
	inner.responses = []*Response{
		okResponse(http.StatusServiceUnavailable),
		okResponse(http.StatusServiceUnavailable),
		okResponse(http.StatusServiceUnavailable),
	}

	cfg := DefaultRetryExecutorConfig()
	cfg.MaxAttempts = 2
	cfg.BackoffStrategy = ZeroBackoff

	exec := NewRetryExecutor(inner, cfg, nil)
	exec.sleepFunc = noDelaySleep

	resp, err := exec.Execute(context.Background(), NewRequest(http.MethodGet, "/api/v1/users"))

	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, 3, inner.calls)
}

// Scenario 4: a 429 with a valid X-Rate-Limit-Reset/Date pair is honored
// even though it exceeds the default schedule's delay.
func TestRetryExecutor_Honors429ResetHeader(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	resetResp := responseWithRateLimitReset(t, now, now.Add(3*time.Second).Unix())

	inner := newScriptedExecutor()
	inner.responses = []*Response{
		resetResp,
		okResponse(http.StatusOK),
	}

	var capturedDelay time.Duration

	exec := NewRetryExecutor(inner, DefaultRetryExecutorConfig(), nil)
	exec.sleepFunc = func(_ context.Context, d time.Duration) error {
		capturedDelay = d
		return nil
	}

	resp, err := exec.Execute(context.Background(), NewRequest(http.MethodGet, "/api/v1/users"))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 4*time.Second, capturedDelay)
}

// Scenario 5: connect-level transport errors retry with the default
// doubling schedule, then succeed.
func TestRetryExecutor_RetriesTransportErrors(t *testing.T) {
	inner := newScriptedExecutor()
	inner.errs = []error{
		newNetworkError(errConnectTimeout, assertError("dial: timeout")),
		newNetworkError(errConnectTimeout, assertError("dial: timeout")),
		newNetworkError(errConnectTimeout, assertError("dial: timeout")),
	}
	inner.responses = []*Response{nil, nil, nil, okResponse(http.StatusOK)}

	var delays []time.Duration

	exec := NewRetryExecutor(inner, DefaultRetryExecutorConfig(), nil)
	exec.sleepFunc = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	resp, err := exec.Execute(context.Background(), NewRequest(http.MethodGet, "/api/v1/users"))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 4, inner.calls)
	assert.Equal(t, []time.Duration{300 * time.Millisecond, 600 * time.Millisecond, 1200 * time.Millisecond}, delays)
}

// Scenario 6: a non-retryable transport error (e.g. a malformed URL)
// surfaces on the first attempt.
func TestRetryExecutor_NonRetryableErrorSurfacesImmediately(t *testing.T) {
	inner := newScriptedExecutor()
	inner.errs = []error{newNetworkError(errOther, assertError("malformed URL"))}

	exec := NewRetryExecutor(inner, DefaultRetryExecutorConfig(), nil)
	exec.sleepFunc = noDelaySleep

	resp, err := exec.Execute(context.Background(), NewRequest(http.MethodGet, "/api/v1/users"))

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 1, inner.calls)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.False(t, te.Retryable)
}

// Scenario 7: an elapsed-time budget that runs out ends the loop with the
// last 503 response instead of an error. The first pause is 800ms, the
// second is clamped to the 200ms left, and after the third call the budget
// check fails, so that call's response is returned. The fake clock advances exactly
// the delay an overridden sleepFunc reports, so the budget check sees real
// progress without the test actually waiting.
func TestRetryExecutor_ElapsedBudgetExhausted_ReturnsPriorResponse(t *testing.T) {
	fakeNow := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	origClock := clockNow
	clockNow = func() time.Time { return fakeNow }
	t.Cleanup(func() { clockNow = origClock })

	inner := newScriptedExecutor()
	inner.responses = []*Response{
		okResponse(http.StatusServiceUnavailable),
		okResponse(http.StatusServiceUnavailable),
		okResponse(http.StatusServiceUnavailable),
	}

	cfg := RetryExecutorConfig{
		MaxElapsedMillis: 1000,
		BackoffStrategy:  BackoffStrategyFunc(func(int) time.Duration { return 800 * time.Millisecond }),
	}

	exec := NewRetryExecutor(inner, cfg, nil)
	exec.sleepFunc = func(_ context.Context, d time.Duration) error {
		fakeNow = fakeNow.Add(d)
		return nil
	}

	resp, err := exec.Execute(context.Background(), NewRequest(http.MethodGet, "/api/v1/users"))

	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryExecutor_RestoresHeadersOnRetry(t *testing.T) {
	inner := newScriptedExecutor()
	inner.responses = []*Response{
		okResponse(http.StatusServiceUnavailable),
		okResponse(http.StatusOK),
	}

	cfg := DefaultRetryExecutorConfig()
	cfg.BackoffStrategy = ZeroBackoff

	exec := NewRetryExecutor(inner, cfg, nil)
	exec.sleepFunc = noDelaySleep

	req := NewRequest(http.MethodPost, "/api/v1/users")
	req.Headers.Set("X-Idempotency-Key", "fixed")

	_, err := exec.Execute(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "fixed", inner.seenHeaders[1].Get("X-Idempotency-Key"))
}

type assertError string

func (e assertError) Error() string { return string(e) }
