package assets

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheEntries is the glyph capacity used when none is configured.
const DefaultCacheEntries = 512

// Cache keeps recently fetched glyph markup in memory in front of another
// Source. Concurrent requests for the same glyph share one underlying fetch.
// Returned slices are shared and must not be modified.
type Cache struct {
	src      Source
	capacity int
	group    singleflight.Group

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is most recently used

	hits   atomic.Uint64
	misses atomic.Uint64
}

type cacheEntry struct {
	name string
	data []byte
}

// NewCache wraps src with an LRU cache holding up to capacity glyphs.
func NewCache(src Source, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheEntries
	}
	return &Cache{
		src:      src,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Catalog passes through to the wrapped source.
func (c *Cache) Catalog(ctx context.Context) ([]byte, error) {
	return c.src.Catalog(ctx)
}

// Glyph returns cached markup or fetches it. A caller whose context is
// canceled returns immediately; the shared fetch continues for the others.
func (c *Cache) Glyph(ctx context.Context, name string) ([]byte, error) {
	if data, ok := c.get(name); ok {
		c.hits.Add(1)
		return data, nil
	}
	c.misses.Add(1)

	ch := c.group.DoChan(name, func() (any, error) {
		if data, ok := c.get(name); ok {
			return data, nil
		}
		data, err := c.src.Glyph(context.WithoutCancel(ctx), name)
		if err != nil {
			return nil, err
		}
		c.put(name, data)
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached glyphs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) get(name string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).data, true
}

func (c *Cache) put(name string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[name]; ok {
		el.Value.(*cacheEntry).data = data
		c.order.MoveToFront(el)
		return
	}
	c.entries[name] = c.order.PushFront(&cacheEntry{name: name, data: data})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).name)
	}
}
