package indicators

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache memoizes computed indicator columns so that many evaluations over the
// same bar set share them. Columns handed out by the cache are read-only.
type Cache struct {
	store *gocache.Cache
}

// NewCache creates a column cache whose entries expire after ttl. A ttl of
// zero keeps entries until the cache is dropped.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Cache{store: gocache.New(ttl, 10*time.Minute)}
}

func columnKey(name string, fingerprint uint64) string {
	return fmt.Sprintf("%s@%016x", name, fingerprint)
}

// column returns the cached column for key or computes and stores it.
// Concurrent misses may compute the same column twice; the results are equal.
func (c *Cache) column(name string, fingerprint uint64, compute func() []Value) []Value {
	if c == nil {
		return compute()
	}
	key := columnKey(name, fingerprint)
	if v, ok := c.store.Get(key); ok {
		return v.([]Value)
	}
	col := compute()
	c.store.SetDefault(key, col)
	return col
}

// Len returns the number of cached columns.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.store.ItemCount()
}

// Flush drops every cached column.
func (c *Cache) Flush() {
	if c != nil {
		c.store.Flush()
	}
}
