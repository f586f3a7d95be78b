package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionParse(t *testing.T) {
	cond := NewCondition("sigs", "ed25519", []byte{1, 2, 3})
	require.NoError(t, cond.Validate())

	ext, typ, data, err := cond.Parse()
	require.NoError(t, err)
	assert.Equal(t, "sigs", ext)
	assert.Equal(t, "ed25519", typ)
	assert.Equal(t, []byte{1, 2, 3}, data)

	// Data containing a slash or a newline must survive parsing.
	tricky := NewCondition("sigs", "ed25519", []byte("a/b\nc"))
	_, _, data, err = tricky.Parse()
	require.NoError(t, err)
	assert.Equal(t, []byte("a/b\nc"), data)
}

func TestConditionValidate(t *testing.T) {
	assert.Error(t, Condition("foobar").Validate())
	assert.Error(t, Condition("no/data/").Validate())
	assert.Error(t, Condition("x/tooshort/data").Validate())
	assert.NoError(t, Condition("foo/bar/data").Validate())
}

func TestAddressFromCondition(t *testing.T) {
	a := NewCondition("sigs", "ed25519", []byte("alice")).Address()
	b := NewCondition("sigs", "ed25519", []byte("bob")).Address()

	require.NoError(t, a.Validate())
	assert.Len(t, []byte(a), AddressLength)
	assert.False(t, a.Equals(b))

	// The same condition always yields the same address.
	again := NewCondition("sigs", "ed25519", []byte("alice")).Address()
	assert.True(t, a.Equals(again))
}

func TestParseAddress(t *testing.T) {
	orig := NewCondition("sigs", "ed25519", []byte("alice")).Address()

	parsed, err := ParseAddress(orig.String())
	require.NoError(t, err)
	assert.True(t, orig.Equals(parsed))

	_, err = ParseAddress("not hex")
	assert.Error(t, err)
	_, err = ParseAddress("ff")
	assert.Error(t, err)
}

func TestAddressJSON(t *testing.T) {
	orig := NewCondition("sigs", "ed25519", []byte("alice")).Address()

	raw, err := orig.MarshalJSON()
	require.NoError(t, err)

	var got Address
	require.NoError(t, got.UnmarshalJSON(raw))
	assert.True(t, orig.Equals(got))

	// An empty string decodes into a nil address.
	require.NoError(t, got.UnmarshalJSON([]byte(`""`)))
	assert.Nil(t, got)
}
