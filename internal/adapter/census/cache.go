package census

import (
	"context"
	"sync"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/observability"
)

// CachedCountyDirectory wraps a CountyDirectory with an in-memory LRU of rosters
// keyed by state FIPS. Rosters change once a year with the ACS release.
type CachedCountyDirectory struct {
	inner   domain.CountyDirectory
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedCountyDirectory creates a cache decorator around a county directory.
func NewCachedCountyDirectory(inner domain.CountyDirectory, maxEntries int, metrics *observability.Metrics) *CachedCountyDirectory {
	return &CachedCountyDirectory{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedCountyDirectory) ListCounties(ctx context.Context, stateFIPS string) ([]domain.County, error) {
	if roster, ok := c.cache.get(stateFIPS); ok {
		c.metrics.CountyCache.WithLabelValues("hit").Inc()
		return roster, nil
	}
	c.metrics.CountyCache.WithLabelValues("miss").Inc()

	roster, err := c.inner.ListCounties(ctx, stateFIPS)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty rosters so a transient empty response can be retried.
	if len(roster) > 0 {
		c.cache.put(stateFIPS, roster)
	}
	return roster, nil
}

// lruCache is a simple thread-safe LRU cache of county rosters.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []domain.County
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]domain.County, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []domain.County) {
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

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
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

func (c *lruCache) unlink(e *entry) {
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

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
