// Package ratelimit is a process-wide keyed counter store with TTL
// eviction. The check-increment-evict sequence is atomic per call, so
// concurrent requests for the same key cannot slip past the limit.
package ratelimit

import (
	"sync"
	"time"
)

type entry struct {
	count     int
	windowEnd time.Time
}

// Limiter counts hits per key within a rolling window
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	keys   map[string]*entry

	stop chan struct{}
	once sync.Once
}

// New creates a limiter allowing limit hits per key per window and
// starts a background sweep that evicts stale keys.
func New(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		limit:  limit,
		window: window,
		keys:   make(map[string]*entry),
		stop:   make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow records a hit for key and reports whether it is within the limit
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.keys[key]
	if !ok || now.After(e.windowEnd) {
		l.keys[key] = &entry{count: 1, windowEnd: now.Add(l.window)}
		return true
	}

	e.count++
	return e.count <= l.limit
}

// Close stops the background sweep
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			now := time.Now()
			l.mu.Lock()
			for k, e := range l.keys {
				if now.After(e.windowEnd) {
					delete(l.keys, k)
				}
			}
			l.mu.Unlock()
		}
	}
}
