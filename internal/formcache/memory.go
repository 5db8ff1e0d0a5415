package formcache

import (
	"context"
	"sync"

	"github.com/listforge/listforge-be/internal/domain"
)

// MemoryCache is an in-process Cache for tests and single-node
// deployments without Redis.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[int64]domain.FormCacheEntry
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[int64]domain.FormCacheEntry)}
}

func (c *MemoryCache) Get(_ context.Context, directoryID int64) (*domain.FormCacheEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[directoryID]
	if !ok {
		return nil, false, nil
	}
	out := entry
	return &out, true, nil
}

func (c *MemoryCache) Put(_ context.Context, directoryID int64, entry *domain.FormCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[directoryID] = *entry
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, directoryID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, directoryID)
	return nil
}
