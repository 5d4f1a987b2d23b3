// Package ratelimit provides a fixed-window in-memory rate limiter.
//
// Each server instance keeps its own counters, so a fleet of N instances
// enforces an effective limit of limit*N per window. Per-process limiting
// is an accepted trade-off here; a shared counter store would be needed
// for a hard global limit.
package ratelimit

import (
	"sync"
	"time"
)

// Result reports the outcome of a limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per key within fixed windows.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// New creates a limiter using the wall clock.
func New() *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// NewWithClock creates a limiter with a custom clock. Tests use this to
// advance time without sleeping.
func NewWithClock(now func() time.Time) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		now:     now,
	}
}

// Check records one request against key and reports whether it is allowed.
// Keys whose window has elapsed are evicted lazily on every call; the
// full-map scan is fine at the expected cardinality (a handful of guarded
// endpoints times active client IPs).
func (l *Limiter) Check(key string, limit int, window time.Duration) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	for k, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, k)
		}
	}

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		resetAt := now.Add(window)
		l.entries[key] = &entry{count: 1, resetAt: resetAt}
		return Result{Allowed: true, Remaining: limit - 1, ResetAt: resetAt}
	}

	if e.count >= limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: e.resetAt}
	}

	e.count++
	return Result{Allowed: true, Remaining: limit - e.count, ResetAt: e.resetAt}
}
