package dashboard

import (
	"sync"

	"github.com/couchcryptid/trashrake-monitor/internal/domain"
)

type seriesKey struct {
	generation uint64
	selection  string
}

// seriesCache is a thread-safe LRU of aggregated series. Histories are
// immutable per generation, so entries never go stale; they only age out.
type seriesCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[seriesKey]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   seriesKey
	value domain.Series
	prev  *entry
	next  *entry
}

func newSeriesCache(maxEntries int) *seriesCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &seriesCache{
		maxEntries: maxEntries,
		entries:    make(map[seriesKey]*entry),
	}
}

func (c *seriesCache) get(key seriesKey) (domain.Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Series{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *seriesCache) put(key seriesKey, value domain.Series) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *seriesCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *seriesCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *seriesCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *seriesCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *seriesCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
