package oktahttp

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func responseWithRateLimitReset(t *testing.T, serverNow time.Time, resetUnix int64) *Response {
	t.Helper()

	h := NewHeaders()
	h.Set("Date", serverNow.UTC().Format(time.RFC1123))
	h.Set(rateLimitResetHeader, strconv.FormatInt(resetUnix, 10))

	return NewResponse(429, h, -1, nil)
}

func TestParse429Delay_ComputesFromResetAndDate(t *testing.T) {
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	resp := responseWithRateLimitReset(t, now, now.Add(3*time.Second).Unix())

	delay := parse429Delay(resp)

	assert.Equal(t, 4*time.Second, delay)
}

func TestParse429Delay_MissingResetHeader(t *testing.T) {
	h := NewHeaders()
	h.Set("Date", time.Now().UTC().Format(time.RFC1123))
	resp := NewResponse(429, h, -1, nil)

	assert.Equal(t, time.Duration(-1), parse429Delay(resp))
}

func TestParse429Delay_MissingDateHeader(t *testing.T) {
	h := NewHeaders()
	h.Set(rateLimitResetHeader, "1234567890")
	resp := NewResponse(429, h, -1, nil)

	assert.Equal(t, time.Duration(-1), parse429Delay(resp))
}

func TestParse429Delay_UnparseableReset(t *testing.T) {
	h := NewHeaders()
	h.Set("Date", time.Now().UTC().Format(time.RFC1123))
	h.Set(rateLimitResetHeader, "not-a-number")
	resp := NewResponse(429, h, -1, nil)

	assert.Equal(t, time.Duration(-1), parse429Delay(resp))
}

func TestNewRequestLimiter_DisabledWhenRateNonPositive(t *testing.T) {
	assert.Nil(t, NewRequestLimiter(0, 1))
	assert.Nil(t, NewRequestLimiter(-1, 1))
}

func TestRequestLimiter_NilIsNoOp(t *testing.T) {
	var l *RequestLimiter

	assert.NoError(t, l.Wait(context.Background()))
}

func TestRequestLimiter_WaitAdmitsWithinBurst(t *testing.T) {
	l := NewRequestLimiter(1000, 5)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 5; i++ {
		assert.NoError(t, l.Wait(ctx))
	}
}
