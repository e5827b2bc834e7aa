package ratelimit

import (
	"context"
	"sync"
	"time"
)

const sweepEvery = 1024

type window struct {
	start time.Time
	count int
}

// MemoryLimiter keeps windows in process. It is correct for a single
// replica only.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	size    time.Duration
	now     func() time.Time
	admits  int
}

type MemoryOption func(*MemoryLimiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryLimiter) { m.now = now }
}

func NewMemoryLimiter(size time.Duration, opts ...MemoryOption) *MemoryLimiter {
	if size <= 0 {
		size = DefaultWindow
	}
	m := &MemoryLimiter{
		windows: make(map[string]*window),
		size:    size,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryLimiter) Admit(_ context.Context, keyID string, limit int) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.admits++
	if m.admits%sweepEvery == 0 {
		m.sweepLocked(now)
	}

	w, ok := m.windows[keyID]
	if !ok || now.Sub(w.start) >= m.size {
		w = &window{start: now}
		m.windows[keyID] = w
	}
	w.count++

	d := Decision{Allowed: w.count <= limit, Count: w.count, Limit: limit}
	if !d.Allowed {
		d.RetryAfter = w.start.Add(m.size).Sub(now)
	}
	return d, nil
}

// Len reports tracked keys.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

func (m *MemoryLimiter) sweepLocked(now time.Time) {
	for k, w := range m.windows {
		if now.Sub(w.start) >= m.size {
			delete(m.windows, k)
		}
	}
}
