// Package ratelimiter provides token-bucket request throttling.
//
// Its main consumer is the public share redemption endpoint: share ids
// are bearer capabilities, so the redemption route must not be an oracle
// for enumerating them at line rate.
package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate with the semantics the API
// layer needs: a zero rate means unlimited, and rejected requests fail
// fast rather than queue.
//
// Tokens are added to the bucket at a constant rate; each request
// consumes one. Burst capacity absorbs short spikes above the sustained
// rate. All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing requestsPerSecond sustained and
// burst immediate requests. requestsPerSecond = 0 disables limiting.
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		// Effectively unlimited. rate.Inf has edge cases around burst
		// handling, so a very large finite rate is used instead.
		requestsPerSecond = 1_000_000_000
		burst = requestsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow reports whether a request may proceed, consuming a token if so.
// This is the fast path; it never blocks.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
// Used by callers that prefer throttling over rejection.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// AllowN reports whether n requests may proceed, consuming n tokens if
// so. No tokens are consumed when fewer than n are available.
func (r *RateLimiter) AllowN(n uint) bool {
	return r.limiter.AllowN(time.Now(), int(n))
}

// Tokens returns the current number of available tokens. Monitoring and
// test use only; the value can change immediately after the call.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
