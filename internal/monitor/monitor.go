// Package monitor samples operational metrics from a Redis instance on a
// fixed interval, independent of the load run's step boundaries. Samples
// are best-effort context for the run; they are not sliced per step.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"stepload/internal/config"
	"stepload/internal/core"
)

// Monitor owns its Redis connection lifecycle: Start before the ramp run
// begins, Stop after it ends or fails. It never blocks the load engine.
type Monitor struct {
	client   *redis.Client
	sink     core.Sink
	interval time.Duration

	started atomic.Bool
	stopped atomic.Bool
	stopCh  chan struct{}
	done    chan struct{}

	mu          sync.Mutex
	samples     int
	peakClients int64
	peakMemory  int64
	lastOpsSec  int64
}

func New(cfg *config.MonitorConfig, sink core.Sink) *Monitor {
	return &Monitor{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		sink:     sink,
		interval: cfg.Interval(),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start verifies connectivity and launches the sampling goroutine.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to redis at %s: %w", m.client.Options().Addr, err)
	}
	m.started.Store(true)
	go m.loop(ctx)
	m.sink.Infof("redis monitor started: %s, sampling every %v", m.client.Options().Addr, m.interval)
	return nil
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sample(ctx)
		}
	}
}

// sample polls INFO once. Sampling failures are warnings, never fatal.
func (m *Monitor) sample(ctx context.Context) {
	raw, err := m.client.Info(ctx, "clients", "memory", "stats").Result()
	if err != nil {
		m.sink.Warnf("redis sample failed: %v", err)
		return
	}
	fields := ParseInfo(raw)

	clients := fields.Int("connected_clients")
	memory := fields.Int("used_memory")
	opsSec := fields.Int("instantaneous_ops_per_sec")

	m.mu.Lock()
	m.samples++
	if clients > m.peakClients {
		m.peakClients = clients
	}
	if memory > m.peakMemory {
		m.peakMemory = memory
	}
	m.lastOpsSec = opsSec
	m.mu.Unlock()

	m.sink.Infof("redis: clients=%d ops/sec=%d commands=%d memory=%s",
		clients, opsSec, fields.Int("total_commands_processed"), fields.Get("used_memory_human"))
}

// Stop halts sampling, logs a summary of what was observed, and closes the
// connection. Idempotent and safe on every exit path, including runs that
// failed before sampling began.
func (m *Monitor) Stop() {
	if m.stopped.Swap(true) {
		return
	}
	if m.started.Load() {
		close(m.stopCh)
		<-m.done
	}

	m.mu.Lock()
	samples, peakClients, peakMemory, lastOps := m.samples, m.peakClients, m.peakMemory, m.lastOpsSec
	m.mu.Unlock()

	if samples == 0 {
		m.sink.Infof("redis monitor stopped: no samples collected")
	} else {
		m.sink.Infof("redis monitor stopped: %d samples, peak clients=%d, peak memory=%dB, last ops/sec=%d",
			samples, peakClients, peakMemory, lastOps)
	}
	_ = m.client.Close()
}
