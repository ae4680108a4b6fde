package cache

import (
	"sync"
	"time"
)

type EvictionPolicy int

const (
	// LRU evicts the least recently used items
	LRU EvictionPolicy = iota
	// LFU evicts the least frequently used items
	LFU
	// FIFO evicts the oldest items
	FIFO
)

type Item struct {
	Value       any
	Expiration  int64
	Created     time.Time
	LastAccess  time.Time
	AccessCount int
}

func (item Item) IsExpired(now int64) bool {
	return item.Expiration > 0 && now > item.Expiration
}

// Cache is a bounded in-memory cache with per-item TTL.
type Cache struct {
	items           map[string]Item
	mu              sync.Mutex
	cleanupInterval time.Duration
	maxItems        int
	evictionPolicy  EvictionPolicy
	stopCleanup     chan struct{}
	closeOnce       sync.Once
	onEvicted       func(string, any)
	stats           Stats
}

type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Items     int64
}

type Options struct {
	CleanupInterval time.Duration
	MaxItems        int
	EvictionPolicy  EvictionPolicy
	OnEvicted       func(string, any)
}

func DefaultOptions() Options {
	return Options{
		CleanupInterval: time.Minute,
		MaxItems:        0, // No limit
		EvictionPolicy:  LRU,
	}
}

func NewCache(options Options) *Cache {
	c := &Cache{
		items:           make(map[string]Item),
		cleanupInterval: options.CleanupInterval,
		maxItems:        options.MaxItems,
		evictionPolicy:  options.EvictionPolicy,
		stopCleanup:     make(chan struct{}),
		onEvicted:       options.OnEvicted,
	}

	if c.cleanupInterval > 0 {
		go c.startCleanupTimer()
	}

	return c
}

func (c *Cache) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for key, item := range c.items {
		if item.IsExpired(now) {
			c.deleteItem(key)
		}
	}
}

// evict drops one item according to the eviction policy. Callers hold mu.
func (c *Cache) evict() {
	var keyToEvict string
	var oldest time.Time
	var lowestCount int

	for k, item := range c.items {
		switch c.evictionPolicy {
		case LFU:
			if keyToEvict == "" || item.AccessCount < lowestCount {
				keyToEvict, lowestCount = k, item.AccessCount
			}
		case FIFO:
			if keyToEvict == "" || item.Created.Before(oldest) {
				keyToEvict, oldest = k, item.Created
			}
		default:
			if keyToEvict == "" || item.LastAccess.Before(oldest) {
				keyToEvict, oldest = k, item.LastAccess
			}
		}
	}

	if keyToEvict != "" {
		c.deleteItem(keyToEvict)
		c.stats.Evictions++
	}
}

func (c *Cache) deleteItem(key string) {
	item, found := c.items[key]
	if !found {
		return
	}
	delete(c.items, key)
	if c.onEvicted != nil {
		c.onEvicted(key, item.Value)
	}
}

// Set stores value under key. A non-positive expiration keeps the item until evicted.
func (c *Cache) Set(key string, value any, expiration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	existing, exists := c.items[key]
	if c.maxItems > 0 && len(c.items) >= c.maxItems && !exists {
		c.evict()
	}

	var exp int64
	if expiration > 0 {
		exp = now.Add(expiration).UnixNano()
	}

	created := now
	if exists {
		created = existing.Created
	}
	c.items[key] = Item{
		Value:      value,
		Expiration: exp,
		Created:    created,
		LastAccess: now,
	}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	item, found := c.items[key]
	if !found || item.IsExpired(now.UnixNano()) {
		if found {
			c.deleteItem(key)
		}
		c.stats.Misses++
		return nil, false
	}

	item.LastAccess = now
	item.AccessCount++
	c.items[key] = item
	c.stats.Hits++

	return item.Value, true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deleteItem(key)
}

func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]Item)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
}

func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Items = int64(len(c.items))
	return s
}
