package oktahttp

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sethvargo/go-retry"
)

// BackoffStrategy computes the delay before a given attempt. It is a pure
// function of the attempt count (spec §3: "pluggable pure function:
// attempt-count → delay-millis"), kept as a single-method interface so test
// suites can freeze delays to zero.
type BackoffStrategy interface {
	Backoff(attempt int) time.Duration
}

// BackoffStrategyFunc adapts a function to BackoffStrategy.
type BackoffStrategyFunc func(attempt int) time.Duration

func (f BackoffStrategyFunc) Backoff(attempt int) time.Duration {
	return f(attempt)
}

// ZeroBackoff never delays. Used by tests that need the retry loop to run
// at full speed.
var ZeroBackoff BackoffStrategy = BackoffStrategyFunc(func(int) time.Duration { return 0 })

const (
	defaultBackoffBaseMillis = 300
	defaultBackoffCapMillis  = 20000
)

// defaultSchedule is spec §4.1's un-configured backoff: min(2^attempt * 300,
// 20000) milliseconds. It is not exported as a BackoffStrategy because the
// RetryExecutor also needs to clamp it against the remaining elapsed
// budget, which a pure BackoffStrategy cannot see.
func defaultSchedule(attempt int) time.Duration {
	millis := int64(defaultBackoffBaseMillis)
	for i := 0; i < attempt; i++ {
		millis *= 2

		if millis >= defaultBackoffCapMillis {
			return defaultBackoffCapMillis * time.Millisecond
		}
	}

	return time.Duration(millis) * time.Millisecond
}

// EqualJitterBackoff adapts cenkalti/backoff's ExponentialBackOff into a
// BackoffStrategy. Each call constructs a fresh backoff from the same
// config and replays it to `attempt` steps, preserving the "pure function
// of attempt" contract the RetryExecutor requires.
type EqualJitterBackoff struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

// NewEqualJitterBackoff returns an EqualJitterBackoff with sensible
// defaults: 500ms initial, 2x multiplier, 30s cap, 50% jitter.
func NewEqualJitterBackoff() *EqualJitterBackoff {
	return &EqualJitterBackoff{
		InitialInterval:     500 * time.Millisecond,
		MaxInterval:         30 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
	}
}

func (b *EqualJitterBackoff) Backoff(attempt int) time.Duration {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = b.InitialInterval
	eb.MaxInterval = b.MaxInterval
	eb.Multiplier = b.Multiplier
	eb.RandomizationFactor = b.RandomizationFactor
	eb.MaxElapsedTime = 0 // never self-terminate; RetryExecutor owns the budget
	eb.Reset()

	var d time.Duration
	for i := 0; i <= attempt; i++ {
		d = eb.NextBackOff()
	}

	return d
}

// FibonacciBackoff adapts sethvargo/go-retry's Fibonacci backoff into a
// BackoffStrategy, offering a gentler early-attempt curve than exponential
// schedules.
type FibonacciBackoff struct {
	Base time.Duration
	Cap  time.Duration
}

// NewFibonacciBackoff returns a FibonacciBackoff with a 250ms base and a
// 20s cap, matching the default schedule's ceiling.
func NewFibonacciBackoff() *FibonacciBackoff {
	return &FibonacciBackoff{Base: 250 * time.Millisecond, Cap: defaultBackoffCapMillis * time.Millisecond}
}

func (b *FibonacciBackoff) Backoff(attempt int) time.Duration {
	bo, err := retry.NewFibonacci(b.Base)
	if err != nil {
		return defaultSchedule(attempt)
	}

	if b.Cap > 0 {
		bo = retry.WithCappedDuration(b.Cap, bo)
	}

	var d time.Duration

	for i := 0; i <= attempt; i++ {
		next, stop := bo.Next()
		if stop {
			return b.Cap
		}

		d = next
	}

	return d
}
