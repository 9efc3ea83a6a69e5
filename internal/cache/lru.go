package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a bounded TTL cache keyed by string. Reads refresh recency;
// inserting past capacity evicts the coldest entry.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	byKey   map[string]*list.Element
	order   *list.List // front = most recently used
}

type lruEntry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

func NewLRU[T any](maxSize int, ttl time.Duration) *LRU[T] {
	return &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		byKey:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get returns the value under key and refreshes its recency. An
// expired entry is dropped on access and reads as a miss.
func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.byKey[key]
	if !ok {
		return zero, false
	}
	entry := elem.Value.(*lruEntry[T])
	if time.Now().After(entry.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return entry.value, true
}

// Set stores value under key with a fresh TTL, evicting the least
// recently used entry when the cache is at capacity.
func (c *LRU[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &lruEntry[T]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.byKey[key]; ok {
		elem.Value = entry
		c.order.MoveToFront(elem)
		return
	}

	c.byKey[key] = c.order.PushFront(entry)
	if c.order.Len() > c.maxSize {
		if coldest := c.order.Back(); coldest != nil {
			c.remove(coldest)
		}
	}
}

// Delete drops key if present.
func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.byKey[key]; ok {
		c.remove(elem)
	}
}

// Clear drops every entry, typically after a write invalidates all
// cached values at once.
func (c *LRU[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byKey = make(map[string]*list.Element)
	c.order.Init()
}

// CleanExpired removes every expired entry and reports how many went.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if entry := elem.Value.(*lruEntry[T]); now.After(entry.expiresAt) {
			c.remove(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// Size reports the number of entries, expired ones included.
func (c *LRU[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}

func (c *LRU[T]) remove(elem *list.Element) {
	entry := elem.Value.(*lruEntry[T])
	delete(c.byKey, entry.key)
	c.order.Remove(elem)
}
