package ramp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stepload/internal/config"
	"stepload/internal/core"
	"stepload/internal/ratelimit"
	"stepload/internal/stats"
)

// Controller runs the step sequence. Each step spawns one goroutine per
// virtual user sharing a single aggregator and a common deadline; the step
// boundary is a full join, so no worker from step N can record into step
// N+1's aggregator.
type Controller struct {
	cfg     *config.Config
	exec    core.Executor
	agg     *stats.Aggregator
	sink    core.Sink
	limiter *ratelimit.Limiter
	clock   core.Clock
}

func New(cfg *config.Config, exec core.Executor, sink core.Sink, limiter *ratelimit.Limiter) *Controller {
	return &Controller{
		cfg:     cfg,
		exec:    exec,
		agg:     stats.NewAggregator(),
		sink:    sink,
		limiter: limiter,
		clock:   core.RealClock{},
	}
}

// WithClock replaces the controller's clock. Used by tests.
func (c *Controller) WithClock(clock core.Clock) *Controller {
	c.clock = clock
	return c
}

// Run executes every step in sequence and returns the finalized summaries.
// Summaries of steps that completed before an abort are still returned.
func (c *Controller) Run(ctx context.Context) ([]stats.Summary, error) {
	seq := Sequence(c.cfg.StartUsers, c.cfg.IncrementBy, c.cfg.MaxUsers)
	summaries := make([]stats.Summary, 0, len(seq))

	c.sink.Infof("ramp plan: %d steps from %d to %d users (+%d), %v per step, %v ramp-up",
		len(seq), seq[0], seq[len(seq)-1], c.cfg.IncrementBy, c.cfg.StepDuration(), c.cfg.RampUp())

	for i, users := range seq {
		c.sink.Infof("step %d/%d: ramping up to %d users", i+1, len(seq), users)
		if err := c.clock.Sleep(ctx, c.cfg.RampUp()); err != nil {
			return summaries, fmt.Errorf("ramp-up interrupted: %w", err)
		}

		summary, err := c.runStep(ctx, users)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
		c.report(i+1, len(seq), summary)
		c.agg.Reset()

		if err := ctx.Err(); err != nil {
			return summaries, err
		}
	}
	return summaries, nil
}

// runStep launches exactly `users` virtual-user loops and blocks until all
// of them have terminated. A panic in any loop aborts the whole run; it
// surfaces only after the join so the aggregator is quiesced either way.
func (c *Controller) runStep(ctx context.Context, users int) (stats.Summary, error) {
	start := c.clock.Now()
	deadline := start.Add(c.cfg.StepDuration())

	var wg sync.WaitGroup
	var panicMu sync.Mutex
	var panicErr error

	for id := 1; id <= users; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicMu.Lock()
					if panicErr == nil {
						panicErr = fmt.Errorf("user %d panicked: %v", id, r)
					}
					panicMu.Unlock()
				}
			}()
			c.runUser(ctx, id, deadline)
		}(id)
	}
	wg.Wait()

	if panicErr != nil {
		return stats.Summary{}, panicErr
	}
	return c.agg.Summarize(users, c.clock.Now().Sub(start)), nil
}

// runUser is the closed-loop virtual user: it issues requests back-to-back
// with no think time until the step deadline. Each request starts only
// after the previous outcome is recorded, so throughput figures model a
// saturated closed worker, not an open arrival process.
func (c *Controller) runUser(ctx context.Context, id int, deadline time.Time) {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}

		outcome := c.exec.Execute(ctx)
		c.agg.Record(outcome)

		if !outcome.Success {
			c.sink.Warnf("user %d: request failed: status=%d latency=%dms error=%q",
				id, outcome.StatusCode, outcome.Latency.Milliseconds(), outcome.Error)
		}

		// Deadline is checked after the request: every user performs at
		// least one request per step, and an in-flight request is never
		// preempted.
		if ctx.Err() != nil || !c.clock.Now().Before(deadline) {
			return
		}
	}
}

func (c *Controller) report(step, totalSteps int, s stats.Summary) {
	c.sink.Infof("step %d/%d complete: users=%d total=%d ok=%d failed=%d rps=%.1f avg=%.1fms p95=%dms success=%.1f%%",
		step, totalSteps, s.Users, s.Total, s.Successful, s.Failed,
		s.RequestsPerSec, s.AvgLatencyMs, s.P95LatencyMs, s.SuccessRate*100)
}
