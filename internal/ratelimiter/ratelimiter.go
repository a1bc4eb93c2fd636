// Package ratelimiter provides token bucket rate limiting.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate to provide token bucket rate
// limiting with context-aware waiting.
//
// The worker uses it to bound image resize throughput so a burst of image
// uploads cannot saturate disk and CPU with simultaneous resizes.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing opsPerSecond sustained operations
// with the given burst capacity.
//
// opsPerSecond = 0 disables limiting (an effectively unlimited bucket).
func New(opsPerSecond, burst uint) *RateLimiter {
	if opsPerSecond == 0 {
		// Unlimited: rate.Inf has edge cases with Wait, so use a very
		// large finite limit instead.
		opsPerSecond = 1_000_000_000
		burst = opsPerSecond
	}
	if burst == 0 {
		burst = opsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(opsPerSecond), int(burst)),
	}
}

// Allow reports whether an operation may proceed now, consuming a token
// if so. It never blocks.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
