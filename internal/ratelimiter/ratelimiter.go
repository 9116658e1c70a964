// Package ratelimiter throttles request submission into an I/O queue.
//
// The queue itself enforces no depth bound - backpressure there is
// purely capacity based - so a caller that wants bounded memory must
// bound its own submission rate. This limiter is that caller-side bound:
// a token bucket (golang.org/x/time/rate) sized for submissions per
// second with a burst allowance.
package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter caps sustained submissions per second while allowing
// short bursts.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing submissionsPerSecond sustained and
// burst immediate submissions.
//
// submissionsPerSecond = 0 disables limiting (effectively unlimited).
func New(submissionsPerSecond, burst uint) *RateLimiter {
	if submissionsPerSecond == 0 {
		// Unlimited: rate.Inf admits everything without bookkeeping.
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst == 0 {
		burst = submissionsPerSecond
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(submissionsPerSecond), int(burst)),
	}
}

// Allow reports whether one submission may proceed now, consuming a
// token when it may. This is the non-blocking fast path.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a submission may proceed or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Tokens returns the currently available submission tokens. Primarily
// useful for monitoring; the value may be stale immediately.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.TokensAt(time.Now())
}
