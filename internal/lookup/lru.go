package lookup

import (
	"container/list"
	"sync"

	"github.com/hyperjump/animerec/internal/models"
)

// LRU is a fixed-capacity cache of lookup results keyed by title name.
// A cached nil info records that the title has no data.
type LRU struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type lruEntry struct {
	key   string
	value *models.TitleInfo
}

// NewLRU creates a cache holding at most capacity entries. A capacity below 1 is treated as 1.
func NewLRU(capacity int) *LRU {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached info for key if present.
func (c *LRU) Get(key string) (*models.TitleInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*lruEntry).value, true
	}
	return nil, false
}

// Set stores info for key, evicting the least recently used entry if at capacity.
func (c *LRU) Set(key string, info *models.TitleInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*lruEntry).value = info
		return
	}

	elem := c.lru.PushFront(&lruEntry{key: key, value: info})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*lruEntry).key)
		}
	}
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
