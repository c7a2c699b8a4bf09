package cache

import (
	"container/list"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Entry holds a cached completion. Read-only after creation.
type Entry struct {
	Key       string    `json:"key"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"` // zero = never expires
}

func (e Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// ResponseCache is a thread-safe LRU cache for generated completions with
// optional per-entry TTL and optional JSON file persistence.
type ResponseCache struct {
	mu       sync.RWMutex
	capacity int
	filePath string
	items    map[string]*list.Element
	lru      *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type lruEntry struct {
	key   string
	value Entry
}

// NewResponseCache creates a cache with the given capacity. filePath is
// optional; when set, the cache is primed from it and Store persists to it.
func NewResponseCache(capacity int, filePath string) *ResponseCache {
	if capacity <= 0 {
		capacity = 1024
	}
	c := &ResponseCache{
		capacity: capacity,
		filePath: filePath,
		items:    make(map[string]*list.Element, capacity),
		lru:      list.New(),
	}
	if filePath != "" {
		c.load()
	}
	return c
}

// Lookup returns the entry for key. Expired entries count as misses and are
// removed lazily.
func (c *ResponseCache) Lookup(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return Entry{}, false
	}

	ent := elem.Value.(*lruEntry)
	if ent.value.expired(time.Now()) {
		c.lru.Remove(elem)
		delete(c.items, key)
		c.misses.Add(1)
		return Entry{}, false
	}

	c.lru.MoveToFront(elem)
	c.hits.Add(1)
	return ent.value, true
}

// Store adds or overwrites the entry for key. ttl <= 0 means no expiry.
// Overwrite is idempotent; last writer wins.
func (c *ResponseCache) Store(key, response string, ttl time.Duration) {
	now := time.Now()
	value := Entry{Key: key, Response: response, CreatedAt: now}
	if ttl > 0 {
		value.ExpiresAt = now.Add(ttl)
	}

	c.mu.Lock()
	if elem, ok := c.items[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*lruEntry).value = value
	} else {
		elem := c.lru.PushFront(&lruEntry{key: key, value: value})
		c.items[key] = elem
		if c.lru.Len() > c.capacity {
			oldest := c.lru.Back()
			if oldest != nil {
				c.lru.Remove(oldest)
				delete(c.items, oldest.Value.(*lruEntry).key)
			}
		}
	}
	c.mu.Unlock()

	c.save()
}

// Clear removes all entries. Used for full reset, not selective eviction.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.lru.Init()
	c.mu.Unlock()
	c.save()
}

// Len returns the number of items in the cache, expired entries included.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// Stats reports lookup hit/miss counters.
func (c *ResponseCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Dump returns a snapshot of cache entries for persistence.
func (c *ResponseCache) Dump() map[string]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dump := make(map[string]Entry, len(c.items))
	for k, elem := range c.items {
		dump[k] = elem.Value.(*lruEntry).value
	}
	return dump
}

// Restore populates the cache from a dump, skipping expired entries.
func (c *ResponseCache) Restore(dump map[string]Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Init()
	c.items = make(map[string]*list.Element, c.capacity)

	now := time.Now()
	for k, v := range dump {
		if v.expired(now) {
			continue
		}
		elem := c.lru.PushFront(&lruEntry{key: k, value: v})
		c.items[k] = elem
	}

	for c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry).key)
		}
	}
}

func (c *ResponseCache) load() {
	f, err := os.Open(c.filePath)
	if err != nil {
		return // ignore errors (file not found, etc)
	}
	defer f.Close()

	var dump map[string]Entry
	if err := json.NewDecoder(f).Decode(&dump); err == nil {
		c.Restore(dump)
	}
}

func (c *ResponseCache) save() {
	if c.filePath == "" {
		return
	}
	dump := c.Dump()

	// Atomic write: write to temp, then rename.
	tmp := c.filePath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return
	}
	if err := json.NewEncoder(f).Encode(dump); err != nil {
		f.Close()
		os.Remove(tmp)
		return
	}
	f.Close()
	os.Rename(tmp, c.filePath)
}
