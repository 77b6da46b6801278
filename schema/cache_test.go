package schema_test

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/sqlbatch/schema"
)

func TestCache(t *testing.T) {
	c := schema.NewCache()
	m := schema.NewModel(schema.WithCache(c)).Add(Item{})

	first, err := schema.ResolveOf[Item](m)
	require.NoError(t, err)
	second, err := schema.ResolveOf[Item](m)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Len())

	other, err := schema.ResolveOf[Item](m, schema.Include("Name"))
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, c.Len())

	k := schema.CacheKey{Model: m, Type: reflect.TypeOf(Item{}), Options: "i=;e=;u="}
	cached, ok := c.Get(k)
	require.True(t, ok)
	assert.Same(t, first, cached)

	// Registering a type invalidates the entries of the model.
	m.Add(Customer{})
	assert.Zero(t, c.Len())
	third, err := schema.ResolveOf[Item](m)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestCache_Load(t *testing.T) {
	c := schema.NewCache()
	m := schema.NewModel(schema.WithCache(c))
	k := schema.CacheKey{Model: m, Type: reflect.TypeOf(Item{})}

	_, err := c.Load(k, func() (*schema.TableInfo, error) {
		return nil, errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	assert.Zero(t, c.Len(), "errors are not cached")

	var calls atomic.Int32
	var wg sync.WaitGroup
	want := &schema.TableInfo{Name: "Items"}
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := c.Load(k, func() (*schema.TableInfo, error) {
				calls.Add(1)
				return want, nil
			})
			assert.NoError(t, err)
			assert.Same(t, want, info)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	assert.Equal(t, 1, c.Len())
}
