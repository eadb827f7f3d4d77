package dataset

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// Cache keeps open datasets with an LRU eviction policy.
//
// Memory use is estimated from each dataset's resident values and
// coordinates. Evicted datasets are closed, so callers must not keep using a
// dataset after removing it from the cache or after it may have been
// evicted; fetch it again with Get instead.
//
// Example:
//
//	cache := dataset.NewCache(1 << 30) // 1GB limit
//
//	ds, err := cache.Get("/data/cmaq_o3.xdr", func() (*dataset.Dataset, error) {
//	    return dataset.Open("/data/cmaq_o3.xdr")
//	})
type Cache struct {
	maxMemory  int64 // Maximum memory in bytes
	usedMemory int64 // Current memory usage estimate
	entries    map[string]*cacheEntry
	lru        *list.List // most recent at front
	hits       int
	misses     int
	mu         sync.Mutex
}

// cacheEntry tracks a cached dataset and its metadata
type cacheEntry struct {
	key          string
	ds           *Dataset
	memorySize   int64
	element      *list.Element
	lastAccessed time.Time
	accessCount  int
}

// NewCache creates a cache with the given memory limit in bytes. Zero means
// unlimited.
func NewCache(maxMemoryBytes int64) *Cache {
	return &Cache{
		maxMemory: maxMemoryBytes,
		entries:   make(map[string]*cacheEntry),
		lru:       list.New(),
	}
}

// Get returns the cached dataset for key, or calls loader on a miss and
// caches its result. A dataset too large for the cache is returned
// uncached.
func (c *Cache) Get(key string, loader func() (*Dataset, error)) (*Dataset, error) {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		entry.lastAccessed = time.Now()
		entry.accessCount++
		c.hits++
		c.lru.MoveToFront(entry.element)
		c.mu.Unlock()
		return entry.ds, nil
	}
	c.misses++
	c.mu.Unlock()

	ds, err := loader()
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	// Another caller may have loaded the same key meanwhile; keep theirs.
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.mu.Unlock()
		ds.Close()
		return entry.ds, nil
	}
	c.mu.Unlock()

	_ = c.Add(key, ds)
	return ds, nil
}

// Add caches ds under key, evicting least-recently-used datasets as needed.
// It returns an error if ds alone exceeds the memory limit.
func (c *Cache) Add(key string, ds *Dataset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		if entry.ds != ds {
			entry.ds.Close()
		}
		c.usedMemory -= entry.memorySize
		entry.ds = ds
		entry.memorySize = estimateMemory(ds)
		entry.lastAccessed = time.Now()
		entry.accessCount++
		c.usedMemory += entry.memorySize
		c.lru.MoveToFront(entry.element)
		return nil
	}

	memSize := estimateMemory(ds)
	if c.maxMemory > 0 && memSize > c.maxMemory {
		return fmt.Errorf("dataset too large for cache (%d bytes > %d bytes max)", memSize, c.maxMemory)
	}
	if c.maxMemory > 0 {
		for c.usedMemory+memSize > c.maxMemory && c.lru.Len() > 0 {
			c.evictLRU()
		}
	}

	entry := &cacheEntry{
		key:          key,
		ds:           ds,
		memorySize:   memSize,
		lastAccessed: time.Now(),
		accessCount:  1,
	}
	entry.element = c.lru.PushFront(entry)
	c.entries[key] = entry
	c.usedMemory += memSize
	return nil
}

// evictLRU closes and removes the least recently used dataset.
// Must be called with c.mu locked.
func (c *Cache) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*cacheEntry)
	c.lru.Remove(elem)
	delete(c.entries, entry.key)
	c.usedMemory -= entry.memorySize
	entry.ds.Close()
}

// Remove closes and removes the dataset cached under key.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.lru.Remove(entry.element)
		delete(c.entries, key)
		c.usedMemory -= entry.memorySize
		entry.ds.Close()
	}
}

// Clear closes and removes every cached dataset.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		entry.ds.Close()
	}
	c.entries = make(map[string]*cacheEntry)
	c.lru.Init()
	c.usedMemory = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	totalAccess := 0
	for _, entry := range c.entries {
		totalAccess += entry.accessCount
	}
	return CacheStats{
		Datasets:    len(c.entries),
		UsedMemory:  c.usedMemory,
		MaxMemory:   c.maxMemory,
		TotalAccess: totalAccess,
		Hits:        c.hits,
		Misses:      c.misses,
	}
}

// CacheStats holds cache metrics.
type CacheStats struct {
	Datasets    int   // Number of datasets currently cached
	UsedMemory  int64 // Estimated memory usage in bytes
	MaxMemory   int64 // Maximum memory limit in bytes
	TotalAccess int   // Accesses across all cached datasets
	Hits        int
	Misses      int
}

// estimateMemory approximates the bytes held by ds:
//   - 1KB of fixed overhead
//   - 8 bytes per resident or stored value
//   - 8 bytes per stored coordinate value
//
// Grid coordinates are computed and only counted once the corner table
// exists.
func estimateMemory(ds *Dataset) int64 {
	if ds == nil {
		return 0
	}
	size := int64(1024)
	size += int64(len(ds.win.data)+len(ds.data)) * 8

	switch v := ds.v.(type) {
	case *gridVariant:
		if v.corners != nil {
			size += int64(v.g.Columns()+1) * int64(v.g.Rows()+1) * 16
		}
	case *siteVariant:
		size += int64(len(v.lon)) * 24
	case *pointVariant:
		size += int64(len(v.lon)+len(v.lat)+len(v.elev)+len(v.offsets)) * 8
	case *swathVariant:
		size += int64(len(v.cornerLon)+len(v.cornerLat)+len(v.lon)+len(v.lat)) * 8
	case *trackVariant:
		size += int64(len(v.lon)+len(v.lat)+len(v.elev)+len(v.steps)) * 8
		size += int64(len(v.times)) * 24
		size += int64(len(v.notes)) * noteWidth
	}
	return size
}
