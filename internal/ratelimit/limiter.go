// Package ratelimit throttles API clients with one token bucket per client IP.
package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration
type Config struct {
	RequestsPerSecond float64
	Burst             int
	// limiters unused this long are dropped by Sweep
	IdleTTL time.Duration
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 10,
		Burst:             20,
		IdleTTL:           10 * time.Minute,
	}
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Metrics receives a notification per rejected request.
type Metrics interface {
	IncrementRateLimitBlock()
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps an in-memory token bucket per key
type RateLimiter struct {
	config  Config
	metrics Metrics
	now     func() time.Time

	clients map[string]*client
	mutex   sync.Mutex
}

// NewRateLimiter creates a limiter. metrics may be nil.
func NewRateLimiter(config Config, metrics Metrics) *RateLimiter {
	return &RateLimiter{
		config:  config,
		metrics: metrics,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Allow spends one token of key's bucket.
func (rl *RateLimiter) Allow(key string) Result {
	now := rl.now()

	rl.mutex.Lock()
	c, exists := rl.clients[key]
	if !exists {
		c = &client{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	rl.mutex.Unlock()

	allowed := c.limiter.AllowN(now, 1)
	result := Result{
		Allowed:   allowed,
		Limit:     rl.config.Burst,
		Remaining: int(math.Max(0, math.Floor(c.limiter.TokensAt(now)))),
	}

	if !allowed {
		// time until one whole token is back
		missing := 1 - c.limiter.TokensAt(now)
		result.RetryAfter = time.Duration(missing / rl.config.RequestsPerSecond * float64(time.Second))
		if rl.metrics != nil {
			rl.metrics.IncrementRateLimitBlock()
		}
	}
	return result
}

// Sweep drops limiters idle for longer than IdleTTL.
func (rl *RateLimiter) Sweep() int {
	cutoff := rl.now().Add(-rl.config.IdleTTL)

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	n := 0
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
			n++
		}
	}
	return n
}

// Run sweeps idle limiters every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Sweep(); n > 0 {
				slog.Debug("Dropped idle rate limiters", "count", n)
			}
		}
	}
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.mutex.Lock()
	count := len(rl.clients)
	rl.mutex.Unlock()

	return map[string]interface{}{
		"tracked_clients":     count,
		"requests_per_second": rl.config.RequestsPerSecond,
		"burst":               rl.config.Burst,
	}
}
