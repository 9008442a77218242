package attempts

import (
	"context"
	"sync"
	"time"
)

// counter tracks failures for one key.
type counter struct {
	failures  int
	firstFail time.Time
}

// MemoryLimiter implements Limiter with an in-process map. The failure window
// starts at the first failure; once it passes, the count resets on the next
// check or failure.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters map[string]*counter

	maxFailures   int
	cooldown      time.Duration
	sweepInterval time.Duration
	stopSweep     chan struct{}

	now func() time.Time
}

// MemoryLimiterOption configures a MemoryLimiter.
type MemoryLimiterOption func(*MemoryLimiter)

// WithMaxFailures sets the lockout threshold.
func WithMaxFailures(n int) MemoryLimiterOption {
	return func(l *MemoryLimiter) {
		if n > 0 {
			l.maxFailures = n
		}
	}
}

// WithCooldown sets the lockout duration measured from the first failure.
func WithCooldown(d time.Duration) MemoryLimiterOption {
	return func(l *MemoryLimiter) {
		if d > 0 {
			l.cooldown = d
		}
	}
}

// WithSweepInterval sets how often stale counters are evicted.
// Set to 0 to disable the background sweep.
func WithSweepInterval(interval time.Duration) MemoryLimiterOption {
	return func(l *MemoryLimiter) {
		l.sweepInterval = interval
	}
}

// WithTimeSource overrides the clock, letting tests control the cooldown.
func WithTimeSource(now func() time.Time) MemoryLimiterOption {
	return func(l *MemoryLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewMemoryLimiter creates a limiter with an optional background sweeper.
func NewMemoryLimiter(opts ...MemoryLimiterOption) *MemoryLimiter {
	l := &MemoryLimiter{
		counters:      make(map[string]*counter),
		maxFailures:   DefaultMaxFailures,
		cooldown:      DefaultCooldown,
		sweepInterval: 5 * time.Minute,
		stopSweep:     make(chan struct{}),
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.sweepInterval > 0 {
		go l.sweep()
	}

	return l
}

// Check implements Limiter.
func (l *MemoryLimiter) Check(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[key]
	if !ok {
		return nil
	}
	if l.now().Sub(c.firstFail) >= l.cooldown {
		delete(l.counters, key)
		return nil
	}
	if c.failures >= l.maxFailures {
		return ErrTooManyAttempts
	}
	return nil
}

// RecordFailure implements Limiter.
func (l *MemoryLimiter) RecordFailure(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[key]
	if !ok || now.Sub(c.firstFail) >= l.cooldown {
		c = &counter{firstFail: now}
		l.counters[key] = c
	}

	c.failures++
	if c.failures >= l.maxFailures {
		return ErrTooManyAttempts
	}
	return nil
}

// Reset implements Limiter.
func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.counters, key)
	return nil
}

// sweep runs periodically to remove counters whose cooldown has passed.
func (l *MemoryLimiter) sweep() {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.removeStale()
		case <-l.stopSweep:
			return
		}
	}
}

func (l *MemoryLimiter) removeStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, c := range l.counters {
		if now.Sub(c.firstFail) >= l.cooldown {
			delete(l.counters, key)
		}
	}
}

// Close stops the sweeper goroutine. Safe to call multiple times.
func (l *MemoryLimiter) Close() {
	select {
	case <-l.stopSweep:
		// Already closed
	default:
		close(l.stopSweep)
	}
}
