// Package throttle paces per-record writes so a large backfill does not
// saturate the primary.
package throttle

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces callers to a fixed number of events per second. The zero
// value and a nil *Limiter never delay.
type Limiter struct {
	limiter *rate.Limiter
}

// New returns a Limiter allowing perSecond events per second with no burst
// beyond a single event. perSecond <= 0 disables throttling.
func New(perSecond int) *Limiter {
	if perSecond <= 0 {
		return &Limiter{}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Enabled reports whether the limiter ever delays.
func (l *Limiter) Enabled() bool {
	return l != nil && l.limiter != nil
}

// Wait blocks until the next event is permitted. It returns the context's
// error once ctx is done, or earlier when the wait would outlast ctx's
// deadline.
func (l *Limiter) Wait(ctx context.Context) error {
	if !l.Enabled() {
		return ctx.Err()
	}
	return l.limiter.Wait(ctx)
}
