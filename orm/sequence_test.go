package orm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/vault/store"
)

func TestSequenceMonotonic(t *testing.T) {
	db := store.MemStore()
	s := NewSequence("cnts", "id")

	var prev []byte
	for i := int64(1); i <= 10; i++ {
		val, err := s.NextInt(db)
		require.NoError(t, err)
		assert.Equal(t, i, val)

		_, raw, err := s.Latest(db)
		require.NoError(t, err)
		if prev != nil {
			assert.True(t, bytes.Compare(prev, raw) < 0)
		}
		prev = raw
	}
}

func TestSequenceIndependentCounters(t *testing.T) {
	db := store.MemStore()
	a := NewSequence("cnts", "id")
	b := NewSequence("cnts", "other")

	v, err := a.NextInt(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	// separate name, separate counter
	v, err = b.NextInt(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestSequenceCodec(t *testing.T) {
	assert.Equal(t, int64(0), DecodeSequence(nil))
	assert.Equal(t, int64(5), DecodeSequence(EncodeSequence(5)))
}
