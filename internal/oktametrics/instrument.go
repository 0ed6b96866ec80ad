package oktametrics

import (
	"context"
	"time"

	"github.com/michaelmarley-sas/okta-sdk-go/internal/oktahttp"
)

// InstrumentedExecutor wraps an oktahttp.Executor, recording the wall-clock
// duration of each Execute call — including every retry it performs
// internally when wrapping a RetryExecutor — without participating in the
// retry decision itself.
type InstrumentedExecutor struct {
	inner    oktahttp.Executor
	recorder *Recorder
}

// Wrap returns an Executor that forwards to inner and records latency into r.
func Wrap(inner oktahttp.Executor, r *Recorder) *InstrumentedExecutor {
	return &InstrumentedExecutor{inner: inner, recorder: r}
}

func (e *InstrumentedExecutor) Execute(ctx context.Context, req *oktahttp.Request) (*oktahttp.Response, error) {
	start := time.Now()
	resp, err := e.inner.Execute(ctx, req)
	e.recorder.Record(time.Since(start))

	return resp, err
}
