// ABOUTME: Per-account token-bucket throttling for the login endpoint
// ABOUTME: Slows online password guessing without locking accounts out

package web

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// limiterIdleTTL is how long an account's bucket survives without a
	// login attempt before it's eligible for pruning.
	limiterIdleTTL = time.Hour

	// limiterPruneThreshold triggers a prune pass when the map grows past it.
	limiterPruneThreshold = 1024
)

// loginLimiter throttles login attempts per account name. Unknown usernames
// are throttled identically to real ones so the limiter itself can't be used
// for enumeration.
type loginLimiter struct {
	mu      sync.Mutex
	buckets map[string]*loginBucket
	rate    rate.Limit
	burst   int
}

type loginBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newLoginLimiter creates a limiter allowing perMinute sustained attempts
// with the given burst, per account.
func newLoginLimiter(perMinute float64, burst int) *loginLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &loginLimiter{
		buckets: make(map[string]*loginBucket),
		rate:    rate.Limit(perMinute / 60.0),
		burst:   burst,
	}
}

// Allow reports whether another login attempt for the account may proceed.
func (l *loginLimiter) Allow(username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[username]
	if !ok {
		if len(l.buckets) >= limiterPruneThreshold {
			l.pruneLocked(now)
		}
		b = &loginBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[username] = b
	}
	b.lastSeen = now

	return b.limiter.Allow()
}

// pruneLocked drops buckets idle past limiterIdleTTL. Caller holds mu.
func (l *loginLimiter) pruneLocked(now time.Time) {
	for name, b := range l.buckets {
		if now.Sub(b.lastSeen) > limiterIdleTTL {
			delete(l.buckets, name)
		}
	}
}
