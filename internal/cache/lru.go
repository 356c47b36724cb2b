package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a size-bounded key-value cache with TTL, used to memoize the
// intent classifier per exact query text. Eviction is least-recently-used;
// hit/miss behavior is observable through Len and the Get ok result.
type LRU struct {
	capacity   int
	defaultTTL time.Duration
	mu         sync.Mutex

	entries map[string]*entry
	order   *list.List
}

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
	element   *list.Element
}

// NewLRU creates a cache. Non-positive capacity or TTL fall back to
// 256 entries and 5 minutes.
func NewLRU(capacity int, defaultTTL time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 256
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &LRU{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		entries:    make(map[string]*entry),
		order:      list.New(),
	}
}

// Get retrieves a value, refreshing its recency. Expired entries miss.
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.remove(e)
		return nil, false
	}
	c.order.MoveToFront(e.element)
	return e.value, true
}

// Set stores a value. ttl <= 0 uses the default TTL.
func (c *LRU) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	e := &entry{key: key, value: value, expiresAt: time.Now().Add(ttl)}
	e.element = c.order.PushFront(e)
	c.entries[key] = e
}

// Len reports the number of live entries, expired ones included until
// they are touched.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRU) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.remove(oldest.Value.(*entry))
}

func (c *LRU) remove(e *entry) {
	c.order.Remove(e.element)
	delete(c.entries, e.key)
}
