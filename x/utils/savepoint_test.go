package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/store"
	"github.com/iov-one/vault/vaulttest"
)

// writingHandler sets a key and optionally fails afterwards.
type writingHandler struct {
	key   []byte
	value []byte
	err   error
}

var _ vault.Handler = writingHandler{}

func (h writingHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if err := db.Set(h.key, h.value); err != nil {
		return nil, err
	}
	return &vault.CheckResult{}, h.err
}

func (h writingHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	if err := db.Set(h.key, h.value); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, h.err
}

func TestSavepointCommitsOnSuccess(t *testing.T) {
	db := store.MemStore()
	h := writingHandler{key: []byte("k"), value: []byte("v")}
	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "test/do"}}

	_, err := NewSavepoint().OnDeliver().Deliver(context.Background(), db, tx, h)
	require.NoError(t, err)

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestSavepointDiscardsOnError(t *testing.T) {
	db := store.MemStore()
	h := writingHandler{key: []byte("k"), value: []byte("v"), err: errors.ErrState}
	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "test/do"}}

	_, err := NewSavepoint().OnDeliver().Deliver(context.Background(), db, tx, h)
	assert.True(t, errors.ErrState.Is(err))

	// The partial write must be gone.
	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSavepointInactiveWithoutTrigger(t *testing.T) {
	db := store.MemStore()
	h := writingHandler{key: []byte("k"), value: []byte("v"), err: errors.ErrState}
	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "test/do"}}

	// Configured for Check only, Deliver writes directly to the store.
	_, err := NewSavepoint().OnCheck().Deliver(context.Background(), db, tx, h)
	assert.True(t, errors.ErrState.Is(err))

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
