package replayguard

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultReuseWindow is how long an accepted code stays blocked.
	DefaultReuseWindow = time.Minute
	// DefaultSweepInterval is how often expired entries are evicted.
	DefaultSweepInterval = 30 * time.Minute
)

// MemoryGuard implements Guard with an in-process map. A single mutex guards
// the whole map; operations are O(1) and never block on I/O, so finer-grained
// locking buys nothing.
type MemoryGuard struct {
	mu      sync.Mutex
	entries map[string]time.Time

	reuseWindow   time.Duration
	sweepInterval time.Duration
	stopSweep     chan struct{}

	now func() time.Time
}

// MemoryGuardOption configures a MemoryGuard.
type MemoryGuardOption func(*MemoryGuard)

// WithReuseWindow sets how long an accepted code is rejected for reuse.
func WithReuseWindow(window time.Duration) MemoryGuardOption {
	return func(g *MemoryGuard) {
		if window > 0 {
			g.reuseWindow = window
		}
	}
}

// WithSweepInterval sets the eviction interval for expired entries.
// Set to 0 to disable the background sweep.
func WithSweepInterval(interval time.Duration) MemoryGuardOption {
	return func(g *MemoryGuard) {
		g.sweepInterval = interval
	}
}

// WithTimeSource overrides the clock, letting tests control expiry.
func WithTimeSource(now func() time.Time) MemoryGuardOption {
	return func(g *MemoryGuard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewMemoryGuard creates a guard with an optional background sweeper.
func NewMemoryGuard(opts ...MemoryGuardOption) *MemoryGuard {
	g := &MemoryGuard{
		entries:       make(map[string]time.Time),
		reuseWindow:   DefaultReuseWindow,
		sweepInterval: DefaultSweepInterval,
		stopSweep:     make(chan struct{}),
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.sweepInterval > 0 {
		go g.sweep()
	}

	return g
}

// RecordIfFresh implements Guard.
func (g *MemoryGuard) RecordIfFresh(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if acceptedAt, ok := g.entries[key]; ok && now.Sub(acceptedAt) < g.reuseWindow {
		return false, nil
	}

	g.entries[key] = now
	return true, nil
}

// Len reports the current number of tracked entries, expired or not.
func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// sweep runs periodically to evict expired entries and bound memory.
func (g *MemoryGuard) sweep() {
	ticker := time.NewTicker(g.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.evictExpired()
		case <-g.stopSweep:
			return
		}
	}
}

func (g *MemoryGuard) evictExpired() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for key, acceptedAt := range g.entries {
		if now.Sub(acceptedAt) >= g.reuseWindow {
			delete(g.entries, key)
		}
	}
}

// Close stops the sweeper goroutine. Safe to call multiple times.
func (g *MemoryGuard) Close() {
	select {
	case <-g.stopSweep:
		// Already closed
	default:
		close(g.stopSweep)
	}
}
