package agents

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBackoff is how long calls pause after the provider reports a rate limit.
const DefaultBackoff = 30 * time.Second

// RateLimitConfig holds rate limiting configuration for an LLM provider.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit. Zero or less disables throttling.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// RateLimiter throttles LLM requests with a token bucket and pauses all
// callers after a rate limit response.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	retryAt := r.retryAt
	now := r.now()
	r.mu.Unlock()

	if now.Before(retryAt) {
		timer := time.NewTimer(retryAt.Sub(now))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError pauses callers for retryAfter (DefaultBackoff if zero).
// A later deadline already in force is kept.
func (r *RateLimiter) RecordRateLimitError(retryAfter time.Duration) {
	if r == nil {
		return
	}
	if retryAfter <= 0 {
		retryAfter = DefaultBackoff
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	until := r.now().Add(retryAfter)
	if until.After(r.retryAt) {
		r.retryAt = until
	}
}

// allow reports whether a request could be made now without blocking.
func (r *RateLimiter) allow() bool {
	if r == nil {
		return true
	}

	r.mu.Lock()
	retryAt := r.retryAt
	now := r.now()
	r.mu.Unlock()

	if now.Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}
