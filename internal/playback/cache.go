package playback

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Cache maps track ids to ready-to-play buffers.
//
// Take removes the entry it returns, moving ownership to the caller. The
// cache does not bound its size; the preloader controls population.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*AudioBuffer
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*AudioBuffer),
	}
}

// Put stores buf under id, replacing any existing entry.
func (c *Cache) Put(id string, buf *AudioBuffer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id] = buf
}

// Take removes and returns the buffer for id. A miss is a normal outcome
// meaning the track is not ready yet.
func (c *Cache) Take(id string) (*AudioBuffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf, ok := c.entries[id]
	if ok {
		delete(c.entries, id)
	}
	return buf, ok
}

// Contains reports whether a buffer for id is cached.
func (c *Cache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[id]
	return ok
}

// Len returns the number of cached buffers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// IDs returns the cached track ids in sorted order.
func (c *Cache) IDs() []string {
	c.mu.Lock()
	ids := lo.Keys(c.entries)
	c.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// Clear drops every cached buffer.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
}
