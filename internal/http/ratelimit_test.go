package http

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsWithinBudget(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < writeBudget; i++ {
		assert.True(t, rl.allow("203.0.113.7", nil), "write %d should fit the budget", i+1)
	}
	assert.False(t, rl.allow("203.0.113.7", nil), "write past the budget must be rejected")

	// Another client has its own budget.
	assert.True(t, rl.allow("203.0.113.8", nil))
}

func TestRateLimiter_CountsHitsIntoMetrics(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	m := &securityMetrics{}
	for i := 0; i < writeBudget+3; i++ {
		rl.allow("203.0.113.7", m)
	}
	assert.EqualValues(t, 3, m.rateLimitHits)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < writeBudget+1; i++ {
		rl.allow("203.0.113.7", nil)
	}

	// Age the window out instead of waiting a minute.
	rl.mu.Lock()
	rl.clients["203.0.113.7"].windowStart = time.Now().Add(-writeWindow)
	rl.mu.Unlock()

	assert.True(t, rl.allow("203.0.113.7", nil), "a fresh window starts a fresh budget")
}

func TestRateLimiter_SweepDropsQuietClients(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 5; i++ {
		rl.allow(fmt.Sprintf("203.0.113.%d", i), nil)
	}

	rl.mu.Lock()
	for _, c := range rl.clients {
		c.lastSeen = time.Now().Add(-staleAfter - time.Minute)
	}
	rl.mu.Unlock()

	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.clients)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := newRateLimiter()
	rl.stop()
	rl.stop()
}
