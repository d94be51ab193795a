package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyLimiter provides per-key rate limiting using token buckets.
// It keeps a separate limiter for each key (typically a client IP), so one
// noisy client cannot exhaust the allowance of others.
type KeyLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyEntry
	rps      float64
	burst    int
	now      func() time.Time
}

type keyEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyLimiter creates a KeyLimiter allowing rps requests per second per
// key with the given burst.
func NewKeyLimiter(rps float64, burst int) *KeyLimiter {
	if burst < 1 {
		burst = 1
	}
	return &KeyLimiter{
		limiters: make(map[string]*keyEntry),
		rps:      rps,
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether a request for key may proceed now.
func (l *KeyLimiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.limiters[key]
	if !ok {
		e = &keyEntry{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = l.now()
	l.mu.Unlock()

	return e.limiter.Allow()
}

// Prune forgets keys not seen within idle and returns how many were removed.
func (l *KeyLimiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	var n int
	for key, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (l *KeyLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
