package lookup

import (
	"container/list"
	"sync"

	"github.com/rtr46/hoverdict/model"
)

// lruCache is a fixed-capacity, move-to-front cache keyed by the
// truncated lookup string. No third-party LRU package appears anywhere
// in the example corpus this module was built from, so this ports the
// source's OrderedDict(move_to_end / popitem(last=False)) idiom
// directly onto container/list + map, which is the standard Go way to
// express the same thing without a dependency.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key   string
	value []model.DictionaryEntryResult
}

func newLRUCache(capacity int) *lruCache {
	return &lruCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// get returns the cached value for key and moves it to most-recently-used.
func (c *lruCache) get(key string) ([]model.DictionaryEntryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

// put inserts or overwrites key's value as most-recently-used, evicting
// the least-recently-used entry if the cache is over capacity.
func (c *lruCache) put(key string, value []model.DictionaryEntryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).value = value
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&cacheEntry{key: key, value: value})
	c.items[key] = el

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}
