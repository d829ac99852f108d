// Package ratelimit implements fixed-window request counters, in process
// or shared through Redis.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Rule allows at most Max hits per Window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Result describes the state of a key after a hit.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait before retrying.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if d := r.ResetAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Limiter counts hits per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps counters in a map. It is only correct for a single
// process.
type MemoryLimiter struct {
	rule    Rule
	clock   clockwork.Clock
	mu      sync.Mutex
	windows map[string]*window
	done    chan struct{}
	once    sync.Once
}

// NewMemoryLimiter starts a limiter whose janitor purges expired windows
// every cleanupInterval. Call Close to stop it.
func NewMemoryLimiter(rule Rule, clock clockwork.Clock, cleanupInterval time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		rule:    rule,
		clock:   clock,
		windows: make(map[string]*window),
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go l.janitor(cleanupInterval)
	}
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.rule.Window)}
		l.windows[key] = w
	}

	if w.count >= l.rule.Max {
		return Result{Allowed: false, Limit: l.rule.Max, Remaining: 0, ResetAt: w.resetAt}, nil
	}

	w.count++
	return Result{
		Allowed:   true,
		Limit:     l.rule.Max,
		Remaining: l.rule.Max - w.count,
		ResetAt:   w.resetAt,
	}, nil
}

// Cleanup removes windows that have expired.
func (l *MemoryLimiter) Cleanup() {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *MemoryLimiter) janitor(interval time.Duration) {
	ticker := l.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			l.Cleanup()
		case <-l.done:
			return
		}
	}
}

// Close stops the janitor.
func (l *MemoryLimiter) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}
