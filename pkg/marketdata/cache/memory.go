package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
)

type memoryEntry struct {
	createdAt time.Time
	series    types.PriceSeries
}

// MemoryCache is an in-process Cache with a fixed time to live.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a MemoryCache. A non-positive ttl keeps entries forever.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: map[string]memoryEntry{},
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (types.PriceSeries, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return types.PriceSeries{}, false, nil
	}

	if c.ttl > 0 && !c.now().Before(entry.createdAt.Add(c.ttl)) {
		delete(c.entries, key)

		return types.PriceSeries{}, false, nil
	}

	return clone(entry.series), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, series types.PriceSeries) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{createdAt: c.now(), series: clone(series)}
	c.mu.Unlock()

	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
