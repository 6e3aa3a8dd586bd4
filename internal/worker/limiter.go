package worker

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle bounds how fast batch jobs start. Assessment is pure local
// CPU work, so the throttle exists for hosts that share that CPU with
// something else. A nil Throttle admits immediately.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle admits perSecond job starts with the given burst.
// perSecond <= 0 disables throttling and returns nil.
func NewThrottle(perSecond float64, burst int) *Throttle {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a slot frees up or the context ends.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

// Allow reports whether a job may start right now, without waiting.
func (t *Throttle) Allow() bool {
	if t == nil || t.limiter == nil {
		return true
	}
	return t.limiter.Allow()
}
