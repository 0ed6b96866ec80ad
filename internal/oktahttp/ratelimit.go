package oktahttp

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitResetHeader is the server-dictated epoch-seconds reset time.
const rateLimitResetHeader = "X-Rate-Limit-Reset"

// resetSlack is added to the computed 429 delay to avoid racing the
// server's reset instant (spec §4.1 "429 reset parsing").
const resetSlack = 1 * time.Second

// parse429Delay computes the delay until the server's advertised rate-limit
// reset, per spec §4.1. Returns -1 if X-Rate-Limit-Reset or Date is absent
// or unparseable, signaling the caller should fall back to the default
// schedule.
func parse429Delay(resp *Response) time.Duration {
	resetStr := resp.Headers.Get(rateLimitResetHeader)
	if resetStr == "" {
		return -1
	}

	resetSeconds, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return -1
	}

	serverNow := resp.Headers.Date()
	if serverNow.IsZero() {
		return -1
	}

	resetMillis := resetSeconds * 1000
	nowMillis := serverNow.UnixMilli()

	return time.Duration(resetMillis-nowMillis)*time.Millisecond + resetSlack
}

// RequestLimiter proactively throttles outgoing requests client-side,
// complementing (never replacing) the server-dictated 429 honoring above.
// It is optional: a nil *RequestLimiter never blocks.
type RequestLimiter struct {
	limiter *rate.Limiter
}

// NewRequestLimiter returns a RequestLimiter allowing up to ratePerSecond
// sustained requests, with a burst of burst requests. ratePerSecond <= 0
// disables limiting (Wait becomes a no-op).
func NewRequestLimiter(ratePerSecond float64, burst int) *RequestLimiter {
	if ratePerSecond <= 0 {
		return nil
	}

	return &RequestLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Wait blocks until the limiter admits one request, or ctx is canceled.
func (l *RequestLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	return l.limiter.Wait(ctx)
}
