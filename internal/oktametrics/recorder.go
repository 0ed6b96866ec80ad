// Package oktametrics records HTTP call latency in a concurrent-safe
// histogram, exposed read-only for `oktactl auth stats`. The CLI wraps its
// RetryExecutor, so each sample is one whole call including its retries. It is additive
// instrumentation wrapping the executors from the outside — a
// RoundTripper-style decorator — and never influences retry behavior.
package oktametrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// minLatencyMicros/maxLatencyMicros bound the histogram's tracked
	// range: 1 microsecond to one minute, generous for HTTP round trips
	// including retries.
	minLatencyMicros = 1
	maxLatencyMicros = 60 * 1000 * 1000
	sigFigures       = 3
)

// Stats is a point-in-time snapshot of recorded latencies.
type Stats struct {
	Count int64
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Recorder accumulates latency samples into an HDR histogram.
// Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{hist: hdrhistogram.New(minLatencyMicros, maxLatencyMicros, sigFigures)}
}

// Record adds one latency sample.
func (r *Recorder) Record(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hist.RecordValue(d.Microseconds()) //nolint:errcheck // hdrhistogram rejects out-of-range samples; they are dropped
}

// Snapshot returns the current percentile summary.
func (r *Recorder) Snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		Count: r.hist.TotalCount(),
		P50:   time.Duration(r.hist.ValueAtQuantile(50)) * time.Microsecond,
		P90:   time.Duration(r.hist.ValueAtQuantile(90)) * time.Microsecond,
		P99:   time.Duration(r.hist.ValueAtQuantile(99)) * time.Microsecond,
		Max:   time.Duration(r.hist.Max()) * time.Microsecond,
	}
}
