package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/gconf"
	"github.com/iov-one/vault/store"
	"github.com/iov-one/vault/vaulttest"
)

func testCtx(auth *vaulttest.CtxAuth, signer vault.Condition) vault.Context {
	ctx := context.Background()
	ctx = vault.WithBlockTime(ctx, time.Unix(1000, 0))
	if signer != nil {
		ctx = auth.SetConditions(ctx, signer)
	}
	return ctx
}

func TestDecoratorPassesWithoutConfiguration(t *testing.T) {
	db := store.MemStore()
	next := &vaulttest.Handler{}

	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "ledger/submit"}}
	_, err := NewDecorator().Deliver(context.Background(), db, tx, next)
	require.NoError(t, err)
	assert.Equal(t, 1, next.DeliverCallCount())
}

func TestDecoratorBlocksWhilePaused(t *testing.T) {
	db := store.MemStore()
	owner := vaulttest.NewCondition()
	require.NoError(t, gconf.Save(db, "gate", &Configuration{
		Owner:  owner.Address(),
		Paused: true,
	}))

	next := &vaulttest.Handler{}
	d := NewDecorator()

	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "ledger/submit"}}
	_, err := d.Deliver(context.Background(), db, tx, next)
	assert.True(t, errors.ErrState.Is(err))
	_, err = d.Check(context.Background(), db, tx, next)
	assert.True(t, errors.ErrState.Is(err))
	assert.Equal(t, 0, next.CallCount())

	// Gate management stays reachable, otherwise unpausing would be
	// impossible.
	for _, path := range []string{"gate/set_paused", "gate/update_configuration"} {
		tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: path}}
		_, err = d.Deliver(context.Background(), db, tx, next)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, next.DeliverCallCount())
}

func TestDecoratorPassesWhenNotPaused(t *testing.T) {
	db := store.MemStore()
	owner := vaulttest.NewCondition()
	require.NoError(t, gconf.Save(db, "gate", &Configuration{
		Owner: owner.Address(),
	}))

	next := &vaulttest.Handler{}
	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "ledger/submit"}}
	_, err := NewDecorator().Deliver(context.Background(), db, tx, next)
	require.NoError(t, err)
	assert.Equal(t, 1, next.DeliverCallCount())
}

func TestSetPaused(t *testing.T) {
	db := store.MemStore()
	auth := &vaulttest.CtxAuth{Key: "auth"}
	owner := vaulttest.NewCondition()
	require.NoError(t, gconf.Save(db, "gate", &Configuration{
		Owner: owner.Address(),
	}))

	handler := SetPausedHandler{auth: auth}

	stranger := vaulttest.NewCondition()
	_, err := handler.Deliver(testCtx(auth, stranger), db, &vaulttest.Tx{Msg: &SetPausedMsg{Paused: true}})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	_, err = handler.Deliver(testCtx(auth, owner), db, &vaulttest.Tx{Msg: &SetPausedMsg{Paused: true}})
	require.NoError(t, err)

	conf, err := loadConf(db)
	require.NoError(t, err)
	assert.True(t, conf.Paused)

	// The owner can unpause again.
	_, err = handler.Deliver(testCtx(auth, owner), db, &vaulttest.Tx{Msg: &SetPausedMsg{Paused: false}})
	require.NoError(t, err)

	conf, err = loadConf(db)
	require.NoError(t, err)
	assert.False(t, conf.Paused)
}
