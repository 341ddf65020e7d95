package core

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/huangsam/qmetrics/schema"
)

// CacheKey identifies one cached snapshot.
type CacheKey struct {
	Scope string // project filter or schema.GlobalScope
	Days  int
}

// NewCacheKey returns the key for an optional project filter and timeframe.
func NewCacheKey(project string, days int) CacheKey {
	return CacheKey{Scope: schema.CacheScope(project), Days: days}
}

// String returns the "<scope>:<days>" form used for logging and singleflight.
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%d", k.Scope, k.Days)
}

// cacheEntry is immutable once stored.
type cacheEntry struct {
	snapshot   *schema.MetricsSnapshot
	computedAt time.Time
}

// Cache is an in-memory snapshot cache with a fixed TTL.
// Entries are replaced wholesale, so a reader sees either the old or the new snapshot.
type Cache struct {
	mu      sync.RWMutex
	entries map[CacheKey]*cacheEntry
	gen     uint64 // bumped by Clear
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache. A nil clock uses time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: map[CacheKey]*cacheEntry{},
		ttl:     ttl,
		now:     now,
	}
}

// TTL returns how long entries stay fresh.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Now returns the cache clock reading.
func (c *Cache) Now() time.Time {
	return c.now()
}

// Get returns the snapshot for key when it is no older than the TTL.
func (c *Cache) Get(key CacheKey) (*schema.MetricsSnapshot, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.computedAt) > c.ttl {
		return nil, false
	}
	return entry.snapshot, true
}

// Put stores a snapshot computed at computedAt.
func (c *Cache) Put(key CacheKey, snapshot *schema.MetricsSnapshot, computedAt time.Time) {
	entry := &cacheEntry{snapshot: snapshot, computedAt: computedAt}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Generation returns the number of times the cache has been cleared.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// PutIfGeneration stores a snapshot only if no Clear happened since gen was read.
// It reports whether the snapshot was stored.
func (c *Cache) PutIfGeneration(key CacheKey, snapshot *schema.MetricsSnapshot, computedAt time.Time, gen uint64) bool {
	entry := &cacheEntry{snapshot: snapshot, computedAt: computedAt}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.entries[key] = entry
	return true
}

// Stats returns the entry count and sorted keys, stale entries included.
func (c *Cache) Stats() schema.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statsLocked()
}

// Clear removes every entry and returns the stats before and after.
func (c *Cache) Clear() schema.ClearCacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := c.statsLocked()
	c.entries = map[CacheKey]*cacheEntry{}
	c.gen++
	return schema.ClearCacheResult{Before: before, After: c.statsLocked()}
}

func (c *Cache) statsLocked() schema.CacheStats {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return schema.CacheStats{Size: len(keys), Keys: keys}
}
