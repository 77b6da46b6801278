package schema

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultCache is the metadata cache shared by models created without WithCache.
var DefaultCache = NewCache()

// CacheKey identifies resolved metadata: the model, the entity type and the
// resolve options it was computed with.
type CacheKey struct {
	Model   *Model
	Type    reflect.Type
	Options string
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	return fmt.Sprintf("%p:%p:%s", k.Model, k.Type, k.Options)
}

// Cache memoizes resolved metadata. Entries are written once and never
// mutated afterwards, so a TableInfo returned by the cache must be treated
// as read-only. Concurrent misses of the same key are collapsed into a
// single resolution.
type Cache struct {
	entries sync.Map // CacheKey => *TableInfo
	group   singleflight.Group
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached metadata of the key, if any.
func (c *Cache) Get(k CacheKey) (*TableInfo, bool) {
	v, ok := c.entries.Load(k)
	if !ok {
		return nil, false
	}
	return v.(*TableInfo), true
}

// Load returns the cached metadata of the key, or computes and stores it.
// Errors are not cached.
func (c *Cache) Load(k CacheKey, fn func() (*TableInfo, error)) (*TableInfo, error) {
	if info, ok := c.Get(k); ok {
		return info, nil
	}
	v, err, _ := c.group.Do(k.String(), func() (any, error) {
		if info, ok := c.Get(k); ok {
			return info, nil
		}
		info, err := fn()
		if err != nil {
			return nil, err
		}
		c.entries.Store(k, info)
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TableInfo), nil
}

// Purge removes all entries of the given model.
func (c *Cache) Purge(m *Model) {
	c.entries.Range(func(k, _ any) bool {
		if k.(CacheKey).Model == m {
			c.entries.Delete(k)
		}
		return true
	})
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
