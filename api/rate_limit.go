package api

import (
	"sync"
	"time"
)

// RateLimiter is a process-wide token bucket sized by MAX_REQUEST and
// REFILL_RATE from the config. The bucket starts full; one token is earned
// per refill interval and a drained bucket rejects instead of queueing.
type RateLimiter struct {
	mu         sync.Mutex
	available  int
	capacity   int
	refillRate time.Duration
	lastRefill time.Time
}

func NewRateLimiter(capacity int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		available:  capacity,
		capacity:   capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow consumes one token, first crediting back whatever the elapsed time
// since the last refill has earned.
func (limiter *RateLimiter) Allow() bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	earned := int(time.Since(limiter.lastRefill) / limiter.refillRate)
	if earned > 0 {
		limiter.available += earned
		if limiter.available > limiter.capacity {
			limiter.available = limiter.capacity
		}
		limiter.lastRefill = time.Now()
	}

	if limiter.available == 0 {
		return false
	}
	limiter.available--
	return true
}
