package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket is a per-key rate limiter. Each key gets its own
// rate.Limiter; keys idle for ten minutes are dropped by a background sweep.
type TokenBucket struct {
	mu       sync.Mutex
	limiters map[string]*keyLimiter
	limit    rate.Limit
	burst    int
}

type keyLimiter struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewTokenBucket creates a rate limiter that allows up to capacity requests
// per key at once, refilling at perSecond tokens per second. A zero rate
// never refills.
func NewTokenBucket(perSecond, capacity float64) *TokenBucket {
	tb := &TokenBucket{
		limiters: make(map[string]*keyLimiter),
		limit:    rate.Limit(perSecond),
		burst:    int(capacity),
	}
	go tb.cleanup()
	return tb
}

// NewPerMinuteLimiter is NewTokenBucket expressed in requests per minute.
func NewPerMinuteLimiter(perMinute float64, burst int) *TokenBucket {
	return NewTokenBucket(perMinute/60, float64(burst))
}

// Allow reports whether key may proceed, consuming one token if so.
func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	kl, ok := tb.limiters[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(tb.limit, tb.burst)}
		tb.limiters[key] = kl
	}
	kl.seen = time.Now()
	tb.mu.Unlock()

	return kl.limiter.Allow()
}

func (tb *TokenBucket) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		tb.mu.Lock()
		cutoff := time.Now().Add(-10 * time.Minute)
		for key, kl := range tb.limiters {
			if kl.seen.Before(cutoff) {
				delete(tb.limiters, key)
			}
		}
		tb.mu.Unlock()
	}
}
