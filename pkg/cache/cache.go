// Package cache is a TTL result cache for remote lookups. Presence or
// absence of a cached value must be transparent to callers: identical
// behavior either way, except for latency.
package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is the fixed expiration window for cached lookups.
const DefaultTTL = time.Hour

// Cache stores serialized lookup results under string keys.
type Cache interface {
	// Get returns the cached value and whether it was present and
	// unexpired.
	Get(ctx context.Context, key string) (string, bool)
	// Put stores value under key for the cache's expiration window.
	Put(ctx context.Context, key, value string)
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process Cache. Expired entries are dropped lazily on
// read and swept wholesale once enough writes accumulate.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
	writes  int
}

const sweepEvery = 256

// NewMemory builds an in-memory cache. A non-positive ttl falls back
// to DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return "", false
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return "", false
	}
	return e.value, true
}

// Put implements Cache.
func (m *Memory) Put(_ context.Context, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(m.ttl)}
	m.writes++
	if m.writes >= sweepEvery {
		m.writes = 0
		now := m.now()
		for k, e := range m.entries {
			if now.After(e.expiresAt) {
				delete(m.entries, k)
			}
		}
	}
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
