// Package ratelimit implements the process-wide token bucket shared by all
// workers.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/jsonharvest/crawler/internal/metrics"
)

// Limiter bounds aggregate request issuance across the worker pool.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter allowing requestsPerSecond acquisitions per second.
// A rate of 0 (or below) disables limiting. The burst is a single token:
// after an idle stretch the bucket holds at most one request's worth of
// credit, which keeps issuance within the configured rate over any sliding
// one-second window.
func New(requestsPerSecond float64) *Limiter {
	r := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		r = rate.Inf
	}
	return &Limiter{
		limiter: rate.NewLimiter(r, 1),
	}
}

// Wait blocks until a token is available, respecting the context. No two
// callers can spend the same token; the underlying bucket serializes
// reservations internally.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if delay := time.Since(start); delay > time.Millisecond {
		metrics.ObserveRateLimitDelay(delay)
	}
	return nil
}
