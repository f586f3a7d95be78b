package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBTreeCacheGetSet(t *testing.T) {
	base := MemStore()

	k, v := []byte("french"), []byte("fry")

	// nothing is there at the beginning
	got, err := base.Get(k)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, base.Set(k, v))
	got, err = base.Get(k)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	// cache sees the parent data
	cache := base.CacheWrap()
	got, err = cache.Get(k)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	// writes in the cache are not visible in the parent until Write
	k2, v2 := []byte("LA"), []byte("Dodgers")
	require.NoError(t, cache.Set(k2, v2))

	got, err = base.Get(k2)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.Write())
	got, err = base.Get(k2)
	require.NoError(t, err)
	assert.Equal(t, v2, got)
}

func TestBTreeCacheDiscard(t *testing.T) {
	base := MemStore()
	k, v := []byte("water"), []byte("flows")
	require.NoError(t, base.Set(k, v))

	cache := base.CacheWrap()
	require.NoError(t, cache.Delete(k))
	require.NoError(t, cache.Set([]byte("add"), []byte("me")))

	// deleted in cache, still in parent
	has, err := cache.Has(k)
	require.NoError(t, err)
	assert.False(t, has)
	has, err = base.Has(k)
	require.NoError(t, err)
	assert.True(t, has)

	// discard drops all cached changes
	cache.Discard()
	has, err = base.Has(k)
	require.NoError(t, err)
	assert.True(t, has)
	has, err = base.Has([]byte("add"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBTreeCacheWriteDelete(t *testing.T) {
	base := MemStore()
	k := []byte("gone")
	require.NoError(t, base.Set(k, []byte("soon")))

	cache := base.CacheWrap()
	require.NoError(t, cache.Delete(k))
	require.NoError(t, cache.Write())

	has, err := base.Has(k)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBTreeCacheIterator(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("a"), []byte("1")))
	require.NoError(t, base.Set([]byte("c"), []byte("3")))

	cache := base.CacheWrap()
	require.NoError(t, cache.Set([]byte("b"), []byte("2")))
	require.NoError(t, cache.Delete([]byte("c")))

	// merged ascending iteration sees parent and cache writes,
	// minus the deleted keys
	iter, err := cache.Iterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close()

	var keys []string
	for ; iter.Valid(); requireNext(t, iter) {
		keys = append(keys, string(iter.Key()))
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestBTreeCacheReverseIterator(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("a"), []byte("1")))

	cache := base.CacheWrap()
	require.NoError(t, cache.Set([]byte("b"), []byte("2")))
	require.NoError(t, cache.Set([]byte("d"), []byte("4")))

	// end is exclusive so "d" is left out
	iter, err := cache.ReverseIterator(nil, []byte("d"))
	require.NoError(t, err)
	defer iter.Close()

	var keys []string
	for ; iter.Valid(); requireNext(t, iter) {
		keys = append(keys, string(iter.Key()))
	}
	assert.Equal(t, []string{"b", "a"}, keys)
}

func TestNestedCacheWraps(t *testing.T) {
	base := MemStore()
	cache := base.CacheWrap()
	nested := cache.CacheWrap()

	require.NoError(t, nested.Set([]byte("deep"), []byte("value")))

	// write the inner wrap, outer still buffers
	require.NoError(t, nested.Write())
	got, err := cache.Get([]byte("deep"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	got, err = base.Get([]byte("deep"))
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.Write())
	got, err = base.Get([]byte("deep"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func requireNext(t *testing.T, iter Iterator) {
	t.Helper()
	require.NoError(t, iter.Next())
}
