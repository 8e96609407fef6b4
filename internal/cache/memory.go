package cache

import (
	"context"
	"sync"
	"time"

	"TalmudBacktest/internal/model"
)

type memoryEntry struct {
	result    *model.Result
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is an in-process TTL cache. Results are copied on the way in and
// out so callers cannot mutate stored entries.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*model.Result, bool, error) {
	res := c.lookup(key)
	return res, res != nil, nil
}

func (c *MemoryCache) GetByID(_ context.Context, id string) (*model.Result, bool, error) {
	res := c.lookup(idKey(id))
	return res, res != nil, nil
}

func (c *MemoryCache) lookup(key string) *model.Result {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || e.expired(c.now()) {
		return nil
	}
	return cloneResult(e.result)
}

func (c *MemoryCache) Put(_ context.Context, key string, res *model.Result, ttl time.Duration) error {
	e := memoryEntry{result: cloneResult(res)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	if res.ID != "" {
		c.entries[idKey(res.ID)] = e
	}
	c.evictExpiredLocked()
	return nil
}

func (c *MemoryCache) evictExpiredLocked() {
	now := c.now()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of live entries, counting both key and ID entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	n := 0
	for _, e := range c.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (c *MemoryCache) Close() error { return nil }

func cloneResult(r *model.Result) *model.Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Curve = append([]model.EquityPoint(nil), r.Curve...)
	out.Benchmark = append([]model.BenchmarkPoint(nil), r.Benchmark...)
	out.Rebalances = append([]time.Time(nil), r.Rebalances...)
	return &out
}
