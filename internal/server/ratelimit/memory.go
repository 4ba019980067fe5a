package ratelimit

import (
	"math"
	"sync"
	"time"
)

// bucket tracks the fractional token count for one key.
type bucket struct {
	tokens  float64
	updated time.Time
}

type memoryLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	perSec   float64
	idle     time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewMemoryLimiter returns an in-process token bucket limiter. Buckets idle
// for two windows are swept.
func NewMemoryLimiter(cfg Config) Limiter {
	return newMemoryLimiter(cfg, time.Now, true)
}

func newMemoryLimiter(cfg Config, now func() time.Time, sweep bool) *memoryLimiter {
	cfg.ApplyDefaults()
	l := &memoryLimiter{
		buckets:  make(map[string]*bucket),
		capacity: float64(cfg.Requests),
		perSec:   float64(cfg.Requests) / cfg.Window.Seconds(),
		idle:     2 * cfg.Window,
		now:      now,
		stopCh:   make(chan struct{}),
	}
	if sweep {
		go l.sweepLoop()
	}
	return l
}

func (l *memoryLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: l.capacity - 1, updated: now}
		return true, 0
	}

	b.tokens = math.Min(l.capacity, b.tokens+now.Sub(b.updated).Seconds()*l.perSec)
	b.updated = now
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}

	missing := 1 - b.tokens
	return false, time.Duration(missing / l.perSec * float64(time.Second))
}

func (l *memoryLimiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

func (l *memoryLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *memoryLimiter) sweepLoop() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopCh:
			return
		}
	}
}

func (l *memoryLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, b := range l.buckets {
		if now.Sub(b.updated) > l.idle {
			delete(l.buckets, key)
		}
	}
}

func (l *memoryLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
