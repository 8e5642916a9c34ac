// Package stats accumulates per-step request outcomes and derives step
// summaries.
package stats

import (
	"sync"
	"sync/atomic"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"

	"stepload/internal/core"
)

// maxTrackableLatencyMs bounds the histogram range. Slower requests are
// clamped to the top bucket.
const maxTrackableLatencyMs = 10 * 60 * 1000

// Aggregator accumulates outcomes for exactly one active step. Record is
// safe for an arbitrary number of concurrent callers with no lost updates.
// Reset and Summarize must only be called once every recorder for the step
// has terminated; the ramp controller's step join enforces that.
type Aggregator struct {
	total      atomic.Int64
	successful atomic.Int64
	failed     atomic.Int64
	latencySum atomic.Int64 // milliseconds

	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		hist: hdrhistogram.New(1, maxTrackableLatencyMs, 3),
	}
}

// Record adds one outcome to the running step totals.
func (a *Aggregator) Record(o core.Outcome) {
	ms := o.Latency.Milliseconds()
	if ms > maxTrackableLatencyMs {
		ms = maxTrackableLatencyMs
	}

	a.total.Add(1)
	if o.Success {
		a.successful.Add(1)
	} else {
		a.failed.Add(1)
	}
	a.latencySum.Add(ms)

	a.mu.Lock()
	_ = a.hist.RecordValue(ms)
	a.mu.Unlock()
}

// Reset returns the aggregator to the zero state for the next step.
func (a *Aggregator) Reset() {
	a.total.Store(0)
	a.successful.Store(0)
	a.failed.Store(0)
	a.latencySum.Store(0)

	a.mu.Lock()
	a.hist.Reset()
	a.mu.Unlock()
}

// Summarize produces a read-only snapshot for the step that just finished.
// Average latency and success rate are 0, not NaN, when no requests were
// recorded.
func (a *Aggregator) Summarize(users int, elapsed time.Duration) Summary {
	total := a.total.Load()
	s := Summary{
		Users:      users,
		Total:      total,
		Successful: a.successful.Load(),
		Failed:     a.failed.Load(),
		Elapsed:    elapsed,
	}

	if total > 0 {
		s.AvgLatencyMs = float64(a.latencySum.Load()) / float64(total)
		s.SuccessRate = float64(s.Successful) / float64(total)

		a.mu.Lock()
		s.MinLatencyMs = a.hist.Min()
		s.MaxLatencyMs = a.hist.Max()
		s.P50LatencyMs = a.hist.ValueAtQuantile(50)
		s.P90LatencyMs = a.hist.ValueAtQuantile(90)
		s.P95LatencyMs = a.hist.ValueAtQuantile(95)
		s.P99LatencyMs = a.hist.ValueAtQuantile(99)
		a.mu.Unlock()
	}

	if elapsed > 0 {
		s.RequestsPerSec = float64(total) / elapsed.Seconds()
	}
	return s
}

// Summary is the finalized, immutable result of one load step.
type Summary struct {
	Users          int           `json:"users"`
	Total          int64         `json:"total"`
	Successful     int64         `json:"successful"`
	Failed         int64         `json:"failed"`
	SuccessRate    float64       `json:"successRate"` // 0..1
	AvgLatencyMs   float64       `json:"avgLatencyMs"`
	MinLatencyMs   int64         `json:"minLatencyMs"`
	MaxLatencyMs   int64         `json:"maxLatencyMs"`
	P50LatencyMs   int64         `json:"p50LatencyMs"`
	P90LatencyMs   int64         `json:"p90LatencyMs"`
	P95LatencyMs   int64         `json:"p95LatencyMs"`
	P99LatencyMs   int64         `json:"p99LatencyMs"`
	RequestsPerSec float64       `json:"requestsPerSec"`
	Elapsed        time.Duration `json:"elapsed"`
}
