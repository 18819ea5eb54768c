package resolver

import (
	"sync"
	"time"

	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/models"
)

// Entry is a cached profile together with the time it was fetched from the
// backend. Freshness is judged against the cache TTL at read time.
type Entry struct {
	Profile   *models.Profile
	FetchedAt time.Time
}

// Cache is the explicit cache abstraction the resolver depends on. Only the
// resolver mutates it; other components invalidate through Resolver.BustCache.
type Cache interface {
	// Get returns the entry for id, or nil when absent or stale.
	Get(id string) *Entry
	// Set stores (or overwrites) the entry for id.
	Set(id string, p *models.Profile)
	// Delete removes the entry for id. No-op when absent.
	Delete(id string)
}

// MemoryCache is a mutex-guarded map cache with a fixed TTL and an
// injectable clock so tests run without real timers.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*Entry
}

// NewMemoryCache creates a MemoryCache with the given TTL. A nil clock
// defaults to time.Now.
func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{ttl: ttl, now: now, entries: make(map[string]*Entry)}
}

// Get returns a fresh entry or nil. Entries older than the TTL are evicted
// on read rather than served.
func (c *MemoryCache) Get(id string) *Entry {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	if c.now().Sub(e.FetchedAt) > c.ttl {
		c.Delete(id)
		return nil
	}
	return e
}

func (c *MemoryCache) Set(id string, p *models.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = &Entry{Profile: p, FetchedAt: c.now()}
}

func (c *MemoryCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}
