package memory

import (
	"context"
	"sync"
	"time"

	"yatube/internal/repository"
)

type cachedPage struct {
	body     []byte
	storedAt time.Time
	ttl      time.Duration
}

// PageCache is an in-process TTL cache of rendered pages.
type PageCache struct {
	mu    sync.RWMutex
	items map[string]cachedPage
	now   func() time.Time
}

func NewPageCache() *PageCache {
	return NewPageCacheWithClock(time.Now)
}

// NewPageCacheWithClock lets callers control expiry, e.g. in tests.
func NewPageCacheWithClock(now func() time.Time) *PageCache {
	return &PageCache{items: make(map[string]cachedPage), now: now}
}

func (c *PageCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().Sub(entry.storedAt) >= entry.ttl {
		c.mu.Lock()
		if cur, still := c.items[key]; still && cur.storedAt.Equal(entry.storedAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.body, true, nil
}

func (c *PageCache) Set(_ context.Context, key string, body []byte, ttl time.Duration) error {
	stored := make([]byte, len(body))
	copy(stored, body)
	c.mu.Lock()
	c.items[key] = cachedPage{body: stored, storedAt: c.now(), ttl: ttl}
	c.mu.Unlock()
	return nil
}

func (c *PageCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.items = make(map[string]cachedPage)
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

var _ repository.PageCache = (*PageCache)(nil)
