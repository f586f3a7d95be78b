package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/store"
	"github.com/iov-one/vault/vaulttest"
)

func TestRouterDispatch(t *testing.T) {
	r := NewRouter()
	h := &vaulttest.Handler{}
	r.Handle("ledger/submit", h)

	db := store.MemStore()
	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "ledger/submit"}}

	_, err := r.Check(context.Background(), db, tx)
	require.NoError(t, err)
	_, err = r.Deliver(context.Background(), db, tx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.CheckCallCount())
	assert.Equal(t, 1, h.DeliverCallCount())
}

func TestRouterNoSuchPath(t *testing.T) {
	r := NewRouter()
	r.Handle("ledger/submit", &vaulttest.Handler{})

	db := store.MemStore()
	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "ledger/unknown"}}

	_, err := r.Check(context.Background(), db, tx)
	assert.True(t, errors.ErrNotFound.Is(err))
	_, err = r.Deliver(context.Background(), db, tx)
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestRouterInvalidPath(t *testing.T) {
	r := NewRouter()
	assert.Panics(t, func() {
		r.Handle("sp ces", &vaulttest.Handler{})
	})
	assert.Panics(t, func() {
		r.Handle("no", &vaulttest.Handler{})
	})
}

func TestRouterDuplicatePath(t *testing.T) {
	r := NewRouter()
	r.Handle("ledger/submit", &vaulttest.Handler{})
	assert.Panics(t, func() {
		r.Handle("ledger/submit", &vaulttest.Handler{})
	})
}
