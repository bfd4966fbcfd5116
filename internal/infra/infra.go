// Package infra provides shared infrastructure used by the HTTP and CLI
// surfaces: a TTL cache for rendered charts.
package infra

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// --- Render cache ---

// CacheEntry holds a rendered payload with expiration.
type CacheEntry struct {
	Data        []byte
	ContentType string
	ExpiresAt   time.Time
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// RenderCache is a thread-safe in-memory cache of rendered charts with TTL.
// Concurrent misses for the same key render once. A zero TTL disables
// caching; every call renders.
//
// Flush starts a new generation: renders begun before it are neither stored
// nor shared with callers that arrive after it.
type RenderCache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	gen     uint64 // guarded by mu
	ttl     time.Duration
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRenderCache creates a cache with the given TTL.
func NewRenderCache(ttl time.Duration) *RenderCache {
	return &RenderCache{
		entries: make(map[string]CacheEntry),
		ttl:     ttl,
	}
}

// Key builds a cache key from its parts.
func Key(parts ...string) string {
	return strings.Join(parts, "\x00")
}

// Get retrieves an entry. Returns false if not found or expired.
func (c *RenderCache) Get(key string) (CacheEntry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.ExpiresAt) {
		return CacheEntry{}, false
	}
	return entry, true
}

// Set stores a payload with the default TTL.
func (c *RenderCache) Set(key string, data []byte, contentType string) {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()
	c.setIfCurrent(gen, key, data, contentType)
}

// setIfCurrent stores the payload unless the cache was flushed after gen.
func (c *RenderCache) setIfCurrent(gen uint64, key string, data []byte, contentType string) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.entries[key] = CacheEntry{
		Data:        data,
		ContentType: contentType,
		ExpiresAt:   time.Now().Add(c.ttl),
	}
}

// GetOrRender returns the cached entry for key, calling render on a miss.
// Errors are not cached.
func (c *RenderCache) GetOrRender(key string, render func() ([]byte, string, error)) (CacheEntry, error) {
	if e, ok := c.Get(key); ok {
		c.hits.Add(1)
		return e, nil
	}
	c.misses.Add(1)

	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	flight := strconv.FormatUint(gen, 10) + "\x00" + key
	v, err, _ := c.group.Do(flight, func() (any, error) {
		data, ct, err := render()
		if err != nil {
			return nil, err
		}
		c.setIfCurrent(gen, key, data, ct)
		return CacheEntry{Data: data, ContentType: ct}, nil
	})
	if err != nil {
		return CacheEntry{}, err
	}
	return v.(CacheEntry), nil
}

// Flush removes all entries and starts a new generation. Called when the
// dataset is reloaded.
func (c *RenderCache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]CacheEntry)
	c.gen++
	c.mu.Unlock()
}

// Cleanup removes expired entries.
func (c *RenderCache) Cleanup() {
	c.mu.Lock()
	now := time.Now()
	for k, v := range c.entries {
		if now.After(v.ExpiresAt) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Stats returns the current entry count and hit/miss counters.
func (c *RenderCache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{Entries: n, Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// RunCleanup calls Cleanup every interval until ctx is cancelled.
func (c *RenderCache) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}
