package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginLimiter_BurstThenThrottle(t *testing.T) {
	l := newLoginLimiter(1, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("alice1"), "attempt %d within burst", i)
	}
	assert.False(t, l.Allow("alice1"), "burst exhausted")
}

func TestLoginLimiter_PerAccountIsolation(t *testing.T) {
	l := newLoginLimiter(1, 1)

	assert.True(t, l.Allow("alice1"))
	assert.False(t, l.Allow("alice1"))

	// A different account has its own bucket
	assert.True(t, l.Allow("bobby1"))
}

func TestLoginLimiter_Defaults(t *testing.T) {
	l := newLoginLimiter(0, 0)

	// Falls back to sane defaults rather than blocking everyone
	assert.True(t, l.Allow("alice1"))
}

func TestLoginLimiter_PruneDropsIdleBuckets(t *testing.T) {
	l := newLoginLimiter(1, 1)

	l.Allow("stale")
	l.buckets["stale"].lastSeen = time.Now().Add(-2 * limiterIdleTTL)
	l.Allow("fresh")

	l.mu.Lock()
	l.pruneLocked(time.Now())
	l.mu.Unlock()

	l.mu.Lock()
	_, staleExists := l.buckets["stale"]
	_, freshExists := l.buckets["fresh"]
	l.mu.Unlock()

	assert.False(t, staleExists)
	assert.True(t, freshExists)
}
