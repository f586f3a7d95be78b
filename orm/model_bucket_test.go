package orm

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/store"
)

// Counter is a minimal model used to exercise the bucket implementation.
type Counter struct {
	Count int64
}

var _ Model = (*Counter)(nil)

func (c *Counter) Marshal() ([]byte, error)   { return cbor.Marshal(c) }
func (c *Counter) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, c) }

func (c *Counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrState, "negative count")
	}
	return nil
}

func (c *Counter) Copy() CloneableData {
	return &Counter{Count: c.Count}
}

func TestModelBucketPutSequence(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{})

	// zero length key forces the id sequence
	key, err := b.Put(db, nil, &Counter{Count: 1})
	require.NoError(t, err)
	assert.Equal(t, EncodeSequence(1), key)

	key, err = b.Put(db, nil, &Counter{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, EncodeSequence(2), key)

	var c Counter
	require.NoError(t, b.One(db, EncodeSequence(2), &c))
	assert.Equal(t, int64(2), c.Count)
}

func TestModelBucketPutValidates(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{})

	_, err := b.Put(db, nil, &Counter{Count: -1})
	assert.True(t, errors.ErrState.Is(err))
}

func TestModelBucketOneNotFound(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{})

	var c Counter
	err := b.One(db, []byte("unknown"), &c)
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestModelBucketDelete(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{})

	key, err := b.Put(db, nil, &Counter{Count: 1})
	require.NoError(t, err)

	require.NoError(t, b.Has(db, key))
	require.NoError(t, b.Delete(db, key))
	assert.True(t, errors.ErrNotFound.Is(b.Has(db, key)))
	assert.True(t, errors.ErrNotFound.Is(b.Delete(db, key)))
}

func TestModelBucketByIndex(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{},
		WithIndex("value", func(obj Object) ([]byte, error) {
			c := obj.Value().(*Counter)
			return EncodeSequence(c.Count), nil
		}, false))

	k1, err := b.Put(db, nil, &Counter{Count: 7})
	require.NoError(t, err)
	_, err = b.Put(db, nil, &Counter{Count: 7})
	require.NoError(t, err)
	_, err = b.Put(db, nil, &Counter{Count: 9})
	require.NoError(t, err)

	var found []Counter
	keys, err := b.ByIndex(db, "value", EncodeSequence(7), &found)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Len(t, found, 2)
	assert.Equal(t, k1, keys[0])

	// no match returns no error and leaves the destination alone
	var none []Counter
	keys, err = b.ByIndex(db, "value", EncodeSequence(1000), &none)
	require.NoError(t, err)
	assert.Nil(t, keys)
	assert.Nil(t, none)
}

func TestModelBucketUniqueIndex(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{},
		WithIndex("value", func(obj Object) ([]byte, error) {
			c := obj.Value().(*Counter)
			return EncodeSequence(c.Count), nil
		}, true))

	_, err := b.Put(db, nil, &Counter{Count: 1})
	require.NoError(t, err)

	// the same index value must be rejected
	_, err = b.Put(db, nil, &Counter{Count: 1})
	assert.True(t, errors.ErrDuplicate.Is(err))

	// updating an entity releases its old index entry
	key, err := b.Put(db, nil, &Counter{Count: 2})
	require.NoError(t, err)
	_, err = b.Put(db, key, &Counter{Count: 3})
	require.NoError(t, err)

	_, err = b.Put(db, nil, &Counter{Count: 2})
	require.NoError(t, err)
}

func TestModelBucketIndexRemovedOnDelete(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{},
		WithIndex("value", func(obj Object) ([]byte, error) {
			c := obj.Value().(*Counter)
			return EncodeSequence(c.Count), nil
		}, true))

	key, err := b.Put(db, nil, &Counter{Count: 5})
	require.NoError(t, err)
	require.NoError(t, b.Delete(db, key))

	var found []Counter
	keys, err := b.ByIndex(db, "value", EncodeSequence(5), &found)
	require.NoError(t, err)
	assert.Nil(t, keys)
}
