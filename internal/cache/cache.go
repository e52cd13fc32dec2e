// Package cache wraps ristretto for small read-mostly listings keyed by string.
package cache

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache is safe for concurrent use. A nil *Cache is valid and never hits.
type Cache[V any] struct {
	c *ristretto.Cache[string, V]
}

// New creates a cache holding at most maxEntries values.
func New[V any](maxEntries int64) (*Cache[V], error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		// Each entry costs 1, so MaxCost is an entry count.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	return &Cache[V]{c: c}, nil
}

func (c *Cache[V]) Get(key string) (V, bool) {
	if c == nil {
		var zero V
		return zero, false
	}

	return c.c.Get(key)
}

// Set stores v and waits for the write buffers to drain so the next Get sees it.
// The admission policy may still reject the value.
func (c *Cache[V]) Set(key string, v V) {
	if c == nil {
		return
	}

	c.c.Set(key, v, 1)
	c.c.Wait()
}

func (c *Cache[V]) Del(keys ...string) {
	if c == nil {
		return
	}

	for _, key := range keys {
		c.c.Del(key)
	}
}

func (c *Cache[V]) Close() {
	if c == nil {
		return
	}

	c.c.Close()
}
