// Package core defines the fundamental types shared by the load engine.
package core

import (
	"context"
	"time"
)

// Outcome represents one completed (or failed) request attempt.
type Outcome struct {
	StatusCode int // 0 when no response was received
	Latency    time.Duration
	Success    bool
	Error      string
}

// Executor performs exactly one request and classifies the result.
// Implementations never surface transport failures as anything other than
// a failed Outcome, and they do not log.
type Executor interface {
	Execute(ctx context.Context) Outcome
}

// Sink accepts leveled, timestamped log lines. *zap.SugaredLogger
// satisfies it; tests use zap.NewNop().Sugar().
type Sink interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}
