// Package util holds small helpers shared across packages.
package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket bounding how often repopulation work may run.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter returns a limiter refilling r tokens per second with burst b.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Allow reports whether an event with weight n may happen now.
func (l *Limiter) Allow(n int) bool {
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available or the context is done.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.inner.WaitN(ctx, n)
}
