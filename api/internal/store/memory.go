package store

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache. Expired entries are dropped on read
// and by Purge.
type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu sync.Mutex
	m  map[string]Entry
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now, m: map[string]Entry{}}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return Entry{}, false, nil
	}
	if c.expired(e) {
		delete(c.m, key)
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (c *MemoryCache) Put(_ context.Context, key string, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now()
	}
	c.mu.Lock()
	c.m[key] = e
	c.mu.Unlock()
	return nil
}

// Purge removes expired entries and reports how many were dropped.
func (c *MemoryCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.m {
		if c.expired(e) {
			delete(c.m, k)
			n++
		}
	}
	return n
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func (c *MemoryCache) expired(e Entry) bool {
	return c.ttl > 0 && c.now().Sub(e.CreatedAt) > c.ttl
}
