// Package middleware holds HTTP middleware shared across the API surface.
package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// defaultRequestsPerSecond is generous enough for a dashboard polling
	// the queue while still containing runaway clients.
	defaultRequestsPerSecond = 10
	defaultBurst             = 20
)

// RateLimiter throttles requests per key (typically the client IP).
type RateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter

	perSecond int
	burst     int
}

// NewRateLimiter creates a rate limiter with the default per-key limits.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithLimits(defaultRequestsPerSecond, defaultBurst)
}

// NewRateLimiterWithLimits creates a rate limiter with explicit limits.
func NewRateLimiterWithLimits(perSecond, burst int) *RateLimiter {
	return &RateLimiter{
		limits:    make(map[string]*rate.Limiter),
		perSecond: perSecond,
		burst:     burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}

	limiter := rate.NewLimiter(rate.Every(time.Second/time.Duration(rl.perSecond)), rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow reports whether a request for the given key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait blocks until a request for the key is allowed or the context ends.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}
