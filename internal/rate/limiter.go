package rate

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultMax        = 5
	DefaultWindow     = time.Minute
	DefaultMaxEntries = 10000
)

// Limiter decides whether the next request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type counter struct {
	count int
	start time.Time
}

// Memory is a per-key fixed window limiter: at most max requests per window, the window
// restarting with the first request after it elapsed. The table is an LRU capped at
// maxEntries whose entries also age out, so idle clients do not accumulate.
type Memory struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries *expirable.LRU[string, *counter]
	nowFunc func() time.Time
}

// MemoryOption customizes a Memory limiter.
type MemoryOption func(*Memory)

// WithClock replaces time.Now for window accounting.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.nowFunc = now }
}

// NewMemory creates a limiter allowing max requests per window for each key.
func NewMemory(max int, window time.Duration, maxEntries int, opts ...MemoryOption) *Memory {
	if max <= 0 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	m := &Memory{
		max:    max,
		window: window,
		// entries outlive their window so the reset rule below decides the boundary
		entries: expirable.NewLRU[string, *counter](maxEntries, nil, 2*window),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Allow counts one request for key and reports whether it fits in the current window.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	now := m.nowFunc()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.entries.Get(key)
	if !ok || now.Sub(w.start) > m.window {
		m.entries.Add(key, &counter{count: 1, start: now})
		return true, nil
	}
	w.count++
	return w.count <= m.max, nil
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	return m.entries.Len()
}

var _ Limiter = (*Memory)(nil)
