package http

import (
	"sync"
	"sync/atomic"
	"time"
)

// Write throttling. Reads are unlimited; only mutating requests count.
// A client syncing a backlog of entries can burst, so the budget is
// sized per minute rather than per second.
const (
	maxWritesPerWindow = 30
	writeWindow        = time.Minute
	limiterSweepEvery  = 5 * time.Minute
	limiterIdleCutoff  = 10 * time.Minute
)

// writeLimiter counts mutating requests per client IP within a window.
type writeLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientWrites
	quit     chan struct{}
	quitOnce sync.Once
}

type clientWrites struct {
	last  time.Time
	count int
}

func newWriteLimiter() *writeLimiter {
	wl := &writeLimiter{
		clients: make(map[string]*clientWrites),
		quit:    make(chan struct{}),
	}
	go wl.sweepLoop()
	return wl
}

func (wl *writeLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			wl.dropIdleClients()
		case <-wl.quit:
			return
		}
	}
}

// dropIdleClients forgets IPs with no recent writes so the map does
// not accumulate every client ever seen.
func (wl *writeLimiter) dropIdleClients() {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	cutoff := time.Now().Add(-limiterIdleCutoff)
	for ip, c := range wl.clients {
		if c.last.Before(cutoff) {
			delete(wl.clients, ip)
		}
	}
}

func (wl *writeLimiter) stop() {
	wl.quitOnce.Do(func() { close(wl.quit) })
}

// allow records one write from clientIP and reports whether it stays
// within the window's budget. The window restarts once the client has
// been quiet for longer than writeWindow.
func (wl *writeLimiter) allow(clientIP string, metrics *abuseMetrics) bool {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	now := time.Now()
	c, ok := wl.clients[clientIP]
	if !ok || now.Sub(c.last) > writeWindow {
		wl.clients[clientIP] = &clientWrites{last: now, count: 1}
		return true
	}

	c.count++
	c.last = now
	if c.count > maxWritesPerWindow {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimited, 1)
		}
		return false
	}
	return true
}
