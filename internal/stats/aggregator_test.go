package stats

import (
	"sync"
	"testing"
	"time"

	"stepload/internal/core"
)

func TestAggregator_Counts(t *testing.T) {
	a := NewAggregator()
	a.Record(core.Outcome{StatusCode: 200, Latency: 10 * time.Millisecond, Success: true})
	a.Record(core.Outcome{StatusCode: 200, Latency: 20 * time.Millisecond, Success: true})
	a.Record(core.Outcome{StatusCode: 500, Latency: 30 * time.Millisecond, Success: false})

	s := a.Summarize(3, time.Second)
	if s.Total != 3 {
		t.Errorf("expected total 3, got %d", s.Total)
	}
	if s.Successful != 2 || s.Failed != 1 {
		t.Errorf("expected 2 ok / 1 failed, got %d / %d", s.Successful, s.Failed)
	}
	if s.Successful+s.Failed != s.Total {
		t.Errorf("successful+failed (%d) != total (%d)", s.Successful+s.Failed, s.Total)
	}
	if s.AvgLatencyMs != 20 {
		t.Errorf("expected avg latency 20ms, got %.1f", s.AvgLatencyMs)
	}
	want := 2.0 / 3.0
	if s.SuccessRate < want-0.001 || s.SuccessRate > want+0.001 {
		t.Errorf("expected success rate %.3f, got %.3f", want, s.SuccessRate)
	}
}

func TestAggregator_EmptySummaryIsZero(t *testing.T) {
	a := NewAggregator()
	s := a.Summarize(5, time.Second)

	if s.Total != 0 || s.Successful != 0 || s.Failed != 0 {
		t.Errorf("expected zero counts, got %+v", s)
	}
	if s.AvgLatencyMs != 0 {
		t.Errorf("expected avg latency 0 for empty step, got %.1f", s.AvgLatencyMs)
	}
	if s.SuccessRate != 0 {
		t.Errorf("expected success rate 0 for empty step, got %.3f", s.SuccessRate)
	}
	if s.Users != 5 {
		t.Errorf("expected users carried through, got %d", s.Users)
	}
}

func TestAggregator_ConcurrentRecordLosesNothing(t *testing.T) {
	a := NewAggregator()

	const callers = 50
	const perCaller = 200

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perCaller; j++ {
				ok := j%4 != 0
				a.Record(core.Outcome{
					StatusCode: 200,
					Latency:    time.Duration(j%50+1) * time.Millisecond,
					Success:    ok,
				})
			}
		}(i)
	}
	wg.Wait()

	s := a.Summarize(callers, time.Second)
	if s.Total != callers*perCaller {
		t.Errorf("lost updates: expected total %d, got %d", callers*perCaller, s.Total)
	}
	if s.Successful+s.Failed != s.Total {
		t.Errorf("successful+failed (%d) != total (%d)", s.Successful+s.Failed, s.Total)
	}
}

func TestAggregator_ResetIsolatesSteps(t *testing.T) {
	a := NewAggregator()
	for i := 0; i < 10; i++ {
		a.Record(core.Outcome{StatusCode: 500, Latency: 100 * time.Millisecond})
	}
	a.Reset()

	a.Record(core.Outcome{StatusCode: 200, Latency: 5 * time.Millisecond, Success: true})
	s := a.Summarize(1, time.Second)

	if s.Total != 1 {
		t.Errorf("expected 1 record after reset, got %d", s.Total)
	}
	if s.Failed != 0 {
		t.Errorf("prior step's failures leaked through reset: %d", s.Failed)
	}
	if s.SuccessRate != 1 {
		t.Errorf("expected success rate 1, got %.3f", s.SuccessRate)
	}
}

func TestAggregator_Percentiles(t *testing.T) {
	a := NewAggregator()
	for ms := 1; ms <= 100; ms++ {
		a.Record(core.Outcome{StatusCode: 200, Latency: time.Duration(ms) * time.Millisecond, Success: true})
	}

	s := a.Summarize(1, time.Second)
	if s.MinLatencyMs != 1 {
		t.Errorf("expected min 1ms, got %d", s.MinLatencyMs)
	}
	if s.MaxLatencyMs != 100 {
		t.Errorf("expected max 100ms, got %d", s.MaxLatencyMs)
	}
	if s.P50LatencyMs < 49 || s.P50LatencyMs > 51 {
		t.Errorf("expected p50 near 50ms, got %d", s.P50LatencyMs)
	}
	if s.P99LatencyMs < 98 || s.P99LatencyMs > 100 {
		t.Errorf("expected p99 near 99ms, got %d", s.P99LatencyMs)
	}
}

func TestAggregator_Throughput(t *testing.T) {
	a := NewAggregator()
	for i := 0; i < 10; i++ {
		a.Record(core.Outcome{StatusCode: 200, Latency: time.Millisecond, Success: true})
	}

	s := a.Summarize(1, 2*time.Second)
	if s.RequestsPerSec != 5 {
		t.Errorf("expected 5 req/s, got %.1f", s.RequestsPerSec)
	}

	// Zero elapsed must not divide by zero.
	s = a.Summarize(1, 0)
	if s.RequestsPerSec != 0 {
		t.Errorf("expected 0 req/s for zero elapsed, got %.1f", s.RequestsPerSec)
	}
}
