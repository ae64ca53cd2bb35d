package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is an in-process fixed-window limiter. Expired windows are
// swept lazily on each check.
type MemoryLimiter struct {
	mu     sync.Mutex
	store  map[string]*windowEntry
	window time.Duration
	max    int
	now    func() time.Time
}

// NewMemoryLimiter builds a limiter allowing max requests per window.
func NewMemoryLimiter(window time.Duration, max int) *MemoryLimiter {
	return &MemoryLimiter{
		store:  make(map[string]*windowEntry),
		window: window,
		max:    max,
		now:    time.Now,
	}
}

// Allow consumes one slot for key within the current window.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	entry, ok := l.store[key]
	if !ok || now.After(entry.resetAt) {
		entry = &windowEntry{count: 1, resetAt: now.Add(l.window)}
		l.store[key] = entry
		return Result{Allowed: true, Remaining: l.max - 1, ResetAt: entry.resetAt}, nil
	}

	if entry.count >= l.max {
		return Result{Allowed: false, Remaining: 0, ResetAt: entry.resetAt}, nil
	}

	entry.count++
	return Result{Allowed: true, Remaining: l.max - entry.count, ResetAt: entry.resetAt}, nil
}

// Reset clears the window for key.
func (l *MemoryLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.store, key)
}

func (l *MemoryLimiter) sweep(now time.Time) {
	for key, entry := range l.store {
		if now.After(entry.resetAt) {
			delete(l.store, key)
		}
	}
}
