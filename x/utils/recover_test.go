package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/store"
	"github.com/iov-one/vault/vaulttest"
)

type panicHandler struct{}

var _ vault.Handler = panicHandler{}

func (panicHandler) Check(vault.Context, vault.KVStore, vault.Tx) (*vault.CheckResult, error) {
	panic("check boom")
}

func (panicHandler) Deliver(vault.Context, vault.KVStore, vault.Tx) (*vault.DeliverResult, error) {
	panic("deliver boom")
}

func TestRecovery(t *testing.T) {
	db := store.MemStore()
	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "test/do"}}
	r := NewRecovery()

	_, err := r.Check(context.Background(), db, tx, panicHandler{})
	assert.True(t, errors.ErrPanic.Is(err))

	_, err = r.Deliver(context.Background(), db, tx, panicHandler{})
	assert.True(t, errors.ErrPanic.Is(err))
}

func TestRecoveryPassesResults(t *testing.T) {
	db := store.MemStore()
	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "test/do"}}
	h := &vaulttest.Handler{}

	_, err := NewRecovery().Deliver(context.Background(), db, tx, h)
	assert.NoError(t, err)
	assert.Equal(t, 1, h.DeliverCallCount())
}
