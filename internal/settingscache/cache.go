// Package settingscache holds a short-lived snapshot of the settings
// row so the scheduler's once-per-minute tick does not hit the store on
// every check. The cache holds at most one entry (settings is a
// singleton) and is invalidated explicitly by every settings write.
package settingscache

import (
	"context"
	"sync"
	"time"

	"kassenwerk/backend/internal/domain"
)

const DefaultTTL = 60 * time.Second

type SettingsSource interface {
	GetSettings(ctx context.Context) (*domain.Settings, error)
}

type Cache struct {
	source SettingsSource
	ttl    time.Duration
	clock  func() time.Time

	mu        sync.RWMutex
	snapshot  *domain.Settings
	fetchedAt time.Time
}

func New(source SettingsSource, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
	}
}

// Get returns the cached snapshot while it is fresh, otherwise fetches
// from the source and re-stamps the entry. Fetch errors are never
// cached.
func (c *Cache) Get(ctx context.Context) (*domain.Settings, error) {
	c.mu.RLock()
	snapshot := c.snapshot
	fetchedAt := c.fetchedAt
	c.mu.RUnlock()

	if snapshot != nil && c.clock().Sub(fetchedAt) < c.ttl {
		return snapshot, nil
	}

	fresh, err := c.source.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.snapshot = fresh
	c.fetchedAt = c.clock()
	c.mu.Unlock()

	return fresh, nil
}

// Invalidate unconditionally expires the cache. Settings writers call
// this synchronously so scheduler behavior reflects new configuration
// on the next tick rather than up to a TTL later.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
