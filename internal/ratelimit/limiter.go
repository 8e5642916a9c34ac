// Package ratelimit caps the aggregate request rate across all virtual
// users with a shared token bucket.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a fixed-rate cap shared by every virtual user in a run. A nil
// *Limiter is valid and never blocks, so callers don't special-case the
// uncapped configuration.
type Limiter struct {
	bucket *rate.Limiter
}

// New creates a limiter allowing rps requests per second. Returns nil when
// rps <= 0 (no cap).
func New(rps int) *Limiter {
	if rps <= 0 {
		return nil
	}
	return &Limiter{
		bucket: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Wait blocks until the limiter admits one request or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.bucket.Wait(ctx)
}
