package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig holds the per-caller limit settings.
type RateLimiterConfig struct {
	Rate            rate.Limit
	Burst           int
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig allows 120 requests per minute per caller.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Rate:            rate.Limit(120.0 / 60.0),
		Burst:           120,
		CleanupInterval: 5 * time.Minute,
	}
}

type callerLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter tracks a token bucket per caller key and evicts idle entries.
type RateLimiter struct {
	config   RateLimiterConfig
	mu       sync.Mutex
	limiters map[string]*callerLimiter
	lastScan time.Time
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		config:   config,
		limiters: make(map[string]*callerLimiter),
		lastScan: time.Now(),
	}
}

func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	entry, ok := r.limiters[key]
	if !ok {
		entry = &callerLimiter{limiter: rate.NewLimiter(r.config.Rate, r.config.Burst)}
		r.limiters[key] = entry
	}
	entry.lastAccess = now

	if now.Sub(r.lastScan) > r.config.CleanupInterval {
		for k, e := range r.limiters {
			if now.Sub(e.lastAccess) > r.config.CleanupInterval {
				delete(r.limiters, k)
			}
		}
		r.lastScan = now
	}

	return entry.limiter.Allow()
}
