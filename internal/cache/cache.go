// Package cache holds the in-memory report cache and its sweeper.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Expirer is implemented by caches whose entries carry a TTL and need
// a periodic sweep, since an expired entry otherwise lingers until its
// key happens to be read again.
type Expirer interface {
	CleanExpired() int
}

// Janitor sweeps registered caches on an interval.
type Janitor struct {
	caches   []Expirer
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewJanitor() *Janitor {
	return &Janitor{
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Track registers a cache for sweeping. Call before Start.
func (j *Janitor) Track(c Expirer) {
	j.caches = append(j.caches, c)
}

// Start launches the sweep loop.
func (j *Janitor) Start(interval time.Duration) {
	go j.run(interval)
}

func (j *Janitor) run(interval time.Duration) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := 0
			for _, c := range j.caches {
				removed += c.CleanExpired()
			}
			if removed > 0 {
				slog.Debug("Swept expired cache entries", "removed", removed)
			}
		case <-j.quit:
			return
		}
	}
}

// Stop ends the sweep loop and waits for it to exit. Safe to call more
// than once.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.quit)
		<-j.done
	})
}
