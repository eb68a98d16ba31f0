package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter; a nil or unlimited Limiter allows everything.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a token bucket limiter with r tokens per second and
// burst b. r <= 0 yields an unlimited limiter.
func NewLimiter(r float64, b int) *Limiter {
	if r <= 0 {
		return &Limiter{inner: rate.NewLimiter(rate.Inf, 0)}
	}
	if b < 1 {
		b = 1
	}
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Allow reports whether an event with weight n may happen now.
func (l *Limiter) Allow(n int) bool {
	if l == nil {
		return true
	}
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	if l == nil {
		return ctx.Err()
	}
	return l.inner.WaitN(ctx, n)
}

// Delay returns how long until one token is available, without consuming it.
func (l *Limiter) Delay() time.Duration {
	if l == nil {
		return 0
	}
	r := l.inner.Reserve()
	defer r.Cancel()
	if !r.OK() {
		return 0
	}
	return r.Delay()
}
