package workspace

import (
	"sync"

	"github.com/zeebo/xxh3"
)

// cacheEntry holds one cached file body with the stat it was read under.
type cacheEntry struct {
	content      string
	size         int64
	modifiedAtMs int64
}

// ContentCache keeps file contents between consecutive syncs so an unchanged
// file is not re-read from the host. Entries are keyed by an xxh3 of the URI
// and invalidated when size or mtime moves.
type ContentCache struct {
	mutex   sync.RWMutex
	entries map[uint64]cacheEntry

	hits   int64
	misses int64
}

// NewContentCache creates an empty cache.
func NewContentCache() *ContentCache {
	return &ContentCache{entries: make(map[uint64]cacheEntry)}
}

// Get returns the cached content if the stat still matches.
func (c *ContentCache) Get(uri string, size, modifiedAtMs int64) (string, bool) {
	key := xxh3.HashString(uri)

	c.mutex.RLock()
	entry, ok := c.entries[key]
	c.mutex.RUnlock()

	if !ok || entry.size != size || entry.modifiedAtMs != modifiedAtMs {
		c.mutex.Lock()
		c.misses++
		c.mutex.Unlock()
		return "", false
	}

	c.mutex.Lock()
	c.hits++
	c.mutex.Unlock()
	return entry.content, true
}

// Set stores content under the stat it was read with.
func (c *ContentCache) Set(uri string, size, modifiedAtMs int64, content string) {
	key := xxh3.HashString(uri)

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[key] = cacheEntry{content: content, size: size, modifiedAtMs: modifiedAtMs}
}

// Clear drops every entry and resets counters.
func (c *ContentCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[uint64]cacheEntry)
	c.hits = 0
	c.misses = 0
}

// Stats reports hit and miss counts since the last Clear.
func (c *ContentCache) Stats() (hits, misses int64) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.hits, c.misses
}
