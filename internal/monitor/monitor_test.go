package monitor

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"stepload/internal/config"
)

// Lifecycle tests run against an unreachable address: the monitor must fail
// fast on Start and stay safe to Stop regardless.

func unreachableMonitor() *Monitor {
	return New(&config.MonitorConfig{Addr: "127.0.0.1:1", SampleInterval: 1}, zap.NewNop().Sugar())
}

func TestStart_UnreachableRedis(t *testing.T) {
	m := unreachableMonitor()
	defer m.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := m.Start(ctx); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestStop_WithoutStart(t *testing.T) {
	m := unreachableMonitor()

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a running sampler")
	}
}

func TestStop_Idempotent(t *testing.T) {
	m := unreachableMonitor()
	m.Stop()
	m.Stop() // second call must be a no-op, not a double close
}
