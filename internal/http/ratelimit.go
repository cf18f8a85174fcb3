package http

import (
	"sync"
	"sync/atomic"
	"time"
)

// The middleware only rate-limits mutating methods. Someone saving
// transactions by hand produces a few writes a minute, so this budget is
// generous for real use and still strangles scripted flooding.
const (
	writeBudget   = 60
	writeWindow   = time.Minute
	staleAfter    = 10 * time.Minute
	sweepInterval = 5 * time.Minute
)

// rateLimiter counts writes per client IP over a fixed window.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*writeCounter
	quit    chan struct{}
	once    sync.Once
}

type writeCounter struct {
	windowStart time.Time
	lastSeen    time.Time
	writes      int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*writeCounter),
		quit:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// allow reports whether a write from clientIP fits the current window's
// budget.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.clients[clientIP]
	if !ok || now.Sub(c.windowStart) >= writeWindow {
		rl.clients[clientIP] = &writeCounter{windowStart: now, lastSeen: now, writes: 1}
		return true
	}

	c.writes++
	c.lastSeen = now
	if c.writes > writeBudget {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

// sweepLoop drops counters for clients that went quiet, keeping the map
// from growing with every IP ever seen.
func (rl *rateLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.quit:
			return
		}
	}
}

func (rl *rateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-staleAfter)
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// stop ends the sweep goroutine. Safe to call more than once.
func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.quit) })
}
