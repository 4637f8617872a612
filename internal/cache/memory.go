package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"airaware/internal/types"
)

// sweepThreshold is the entry count above which Set purges expired entries.
const sweepThreshold = 4096

// MemoryCache is an in-process Cache used when Redis is not configured. Values
// are stored JSON-encoded so callers never share mutable state.
type MemoryCache struct {
	mu      sync.Mutex
	clock   types.Clock
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// NewMemoryCache returns an empty cache. A nil clock uses the wall clock.
func NewMemoryCache(clock types.Clock) *MemoryCache {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &MemoryCache{clock: clock, entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !c.clock.Now().Before(e.expires) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	if len(c.entries) >= sweepThreshold {
		for k, e := range c.entries {
			if !now.Before(e.expires) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = memoryEntry{data: data, expires: now.Add(ttl)}
	return nil
}

// Ping always succeeds.
func (c *MemoryCache) Ping(context.Context) error { return nil }

// Len returns the number of stored entries, including expired ones not yet
// purged.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
