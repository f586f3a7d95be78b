package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/gconf"
	"github.com/iov-one/vault/orm"
	"github.com/iov-one/vault/store"
	"github.com/iov-one/vault/vaulttest"
)

type testEnv struct {
	db      vault.CacheableKVStore
	auth    *vaulttest.CtxAuth
	disp    *vaulttest.Dispatcher
	bucket  orm.ModelBucket
	owner   vault.Condition
	signers []vault.Condition
}

func newTestEnv(t *testing.T, conf func(*Configuration)) (*testEnv, SubmitHandler, ConfirmHandler, ExecuteHandler, CancelHandler) {
	t.Helper()

	env := &testEnv{
		auth:  &vaulttest.CtxAuth{Key: "auth"},
		disp:  &vaulttest.Dispatcher{},
		owner: vaulttest.NewCondition(),
		signers: []vault.Condition{
			vaulttest.NewCondition(),
			vaulttest.NewCondition(),
			vaulttest.NewCondition(),
		},
	}
	env.db = store.MemStore()

	c := Configuration{
		Owner:     env.owner.Address(),
		Threshold: 2,
		Signers: []vault.Address{
			env.signers[0].Address(),
			env.signers[1].Address(),
			env.signers[2].Address(),
		},
	}
	if conf != nil {
		conf(&c)
	}
	require.NoError(t, gconf.Save(env.db, "ledger", &c))

	bucket := NewTransactionBucket()
	submit := SubmitHandler{auth: env.auth, bucket: bucket}
	confirm := ConfirmHandler{auth: env.auth, bucket: bucket}
	execute := ExecuteHandler{auth: env.auth, bucket: bucket, disp: env.disp}
	cancel := CancelHandler{auth: env.auth, bucket: bucket}
	env.bucket = bucket
	return env, submit, confirm, execute, cancel
}

func (env *testEnv) ctx(now vault.UnixTime, signer vault.Condition) vault.Context {
	ctx := context.Background()
	ctx = vault.WithBlockTime(ctx, time.Unix(int64(now), 0))
	if signer != nil {
		ctx = env.auth.SetConditions(ctx, signer)
	}
	return ctx
}

func (env *testEnv) one(t *testing.T, id []byte) *PendingTransaction {
	t.Helper()
	var pending PendingTransaction
	require.NoError(t, env.bucket.One(env.db, id, &pending))
	return &pending
}

func testCall() *vault.CallDescriptor {
	return &vault.CallDescriptor{
		Target:   vaulttest.NewCondition().Address(),
		Selector: "transfer",
		Payload:  []uint64{7, 100},
	}
}

func TestSubmitConfirmExecute(t *testing.T) {
	env, submit, confirm, execute, _ := newTestEnv(t, nil)

	res, err := submit.Deliver(env.ctx(1000, env.signers[0]), env.db, &vaulttest.Tx{Msg: &SubmitMsg{Call: testCall()}})
	require.NoError(t, err)
	id := res.Data
	assert.Equal(t, vaulttest.SequenceID(1), id)

	// Submitting does not confirm. Threshold of 2 needs 2 explicit votes.
	pending := env.one(t, id)
	assert.Len(t, pending.Confirmations, 0)
	assert.False(t, pending.Final())
	assert.Equal(t, vault.UnixTime(1000), pending.CreatedAt)

	_, err = confirm.Deliver(env.ctx(1001, env.signers[0]), env.db, &vaulttest.Tx{Msg: &ConfirmMsg{TransactionID: id}})
	require.NoError(t, err)

	// Executing with one of two confirmations must fail.
	_, err = execute.Deliver(env.ctx(1002, env.signers[0]), env.db, &vaulttest.Tx{Msg: &ExecuteMsg{TransactionID: id}})
	assert.True(t, ErrThresholdNotMet.Is(err))
	assert.Equal(t, 0, env.disp.DispatchCount())

	_, err = confirm.Deliver(env.ctx(1003, env.signers[1]), env.db, &vaulttest.Tx{Msg: &ConfirmMsg{TransactionID: id}})
	require.NoError(t, err)

	_, err = execute.Deliver(env.ctx(1004, env.signers[2]), env.db, &vaulttest.Tx{Msg: &ExecuteMsg{TransactionID: id}})
	require.NoError(t, err)
	assert.Equal(t, 1, env.disp.DispatchCount())
	assert.Equal(t, "transfer", env.disp.Calls[0].Selector)

	pending = env.one(t, id)
	assert.True(t, pending.Final())
	assert.Equal(t, vault.UnixTime(1004), pending.ExecutedAt)
	// The executed call stays in the store for audit.
	assert.NotNil(t, pending.Call)

	// A final transaction cannot be executed again.
	_, err = execute.Deliver(env.ctx(1005, env.signers[2]), env.db, &vaulttest.Tx{Msg: &ExecuteMsg{TransactionID: id}})
	assert.True(t, ErrAlreadyFinal.Is(err))
	assert.Equal(t, 1, env.disp.DispatchCount())
}

func TestSubmitRequiresSigner(t *testing.T) {
	env, submit, _, _, _ := newTestEnv(t, nil)

	stranger := vaulttest.NewCondition()
	_, err := submit.Deliver(env.ctx(1000, stranger), env.db, &vaulttest.Tx{Msg: &SubmitMsg{Call: testCall()}})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	// The owner is not implicitly a signer.
	_, err = submit.Deliver(env.ctx(1000, env.owner), env.db, &vaulttest.Tx{Msg: &SubmitMsg{Call: testCall()}})
	assert.True(t, errors.ErrUnauthorized.Is(err))
}

func TestConfirmIsIdempotent(t *testing.T) {
	env, submit, confirm, _, _ := newTestEnv(t, nil)

	res, err := submit.Deliver(env.ctx(1000, env.signers[0]), env.db, &vaulttest.Tx{Msg: &SubmitMsg{Call: testCall()}})
	require.NoError(t, err)
	id := res.Data

	for i := 0; i < 3; i++ {
		_, err = confirm.Deliver(env.ctx(1001, env.signers[0]), env.db, &vaulttest.Tx{Msg: &ConfirmMsg{TransactionID: id}})
		require.NoError(t, err)
	}

	pending := env.one(t, id)
	assert.Len(t, pending.Confirmations, 1)
}

func TestConfirmFinalTransaction(t *testing.T) {
	env, submit, confirm, _, cancel := newTestEnv(t, nil)

	res, err := submit.Deliver(env.ctx(1000, env.signers[0]), env.db, &vaulttest.Tx{Msg: &SubmitMsg{Call: testCall()}})
	require.NoError(t, err)
	id := res.Data

	_, err = cancel.Deliver(env.ctx(1001, env.owner), env.db, &vaulttest.Tx{Msg: &CancelMsg{TransactionID: id}})
	require.NoError(t, err)

	_, err = confirm.Deliver(env.ctx(1002, env.signers[0]), env.db, &vaulttest.Tx{Msg: &ConfirmMsg{TransactionID: id}})
	assert.True(t, ErrAlreadyFinal.Is(err))
}

func TestConfirmUnknownTransaction(t *testing.T) {
	env, _, confirm, _, _ := newTestEnv(t, nil)

	_, err := confirm.Deliver(env.ctx(1000, env.signers[0]), env.db, &vaulttest.Tx{Msg: &ConfirmMsg{TransactionID: vaulttest.SequenceID(123)}})
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestExecuteFailedDispatchIsRetryable(t *testing.T) {
	env, submit, confirm, execute, _ := newTestEnv(t, nil)

	res, err := submit.Deliver(env.ctx(1000, env.signers[0]), env.db, &vaulttest.Tx{Msg: &SubmitMsg{Call: testCall()}})
	require.NoError(t, err)
	id := res.Data

	_, err = confirm.Deliver(env.ctx(1001, env.signers[0]), env.db, &vaulttest.Tx{Msg: &ConfirmMsg{TransactionID: id}})
	require.NoError(t, err)
	_, err = confirm.Deliver(env.ctx(1002, env.signers[1]), env.db, &vaulttest.Tx{Msg: &ConfirmMsg{TransactionID: id}})
	require.NoError(t, err)

	env.disp.Err = errors.ErrState
	_, err = execute.Deliver(env.ctx(1003, env.signers[0]), env.db, &vaulttest.Tx{Msg: &ExecuteMsg{TransactionID: id}})
	assert.True(t, errors.ErrState.Is(err))

	// A failed dispatch must not finalize the transaction.
	pending := env.one(t, id)
	assert.False(t, pending.Final())

	env.disp.Err = nil
	_, err = execute.Deliver(env.ctx(1004, env.signers[0]), env.db, &vaulttest.Tx{Msg: &ExecuteMsg{TransactionID: id}})
	require.NoError(t, err)
	assert.True(t, env.one(t, id).Final())
}

func TestExecuteRestricted(t *testing.T) {
	env, submit, confirm, execute, _ := newTestEnv(t, func(c *Configuration) {
		c.ExecuteRestricted = true
	})

	res, err := submit.Deliver(env.ctx(1000, env.signers[0]), env.db, &vaulttest.Tx{Msg: &SubmitMsg{Call: testCall()}})
	require.NoError(t, err)
	id := res.Data

	_, err = confirm.Deliver(env.ctx(1001, env.signers[0]), env.db, &vaulttest.Tx{Msg: &ConfirmMsg{TransactionID: id}})
	require.NoError(t, err)
	_, err = confirm.Deliver(env.ctx(1002, env.signers[1]), env.db, &vaulttest.Tx{Msg: &ConfirmMsg{TransactionID: id}})
	require.NoError(t, err)

	stranger := vaulttest.NewCondition()
	_, err = execute.Deliver(env.ctx(1003, stranger), env.db, &vaulttest.Tx{Msg: &ExecuteMsg{TransactionID: id}})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	_, err = execute.Deliver(env.ctx(1004, env.signers[2]), env.db, &vaulttest.Tx{Msg: &ExecuteMsg{TransactionID: id}})
	require.NoError(t, err)
}

func TestExecuteOpenWhenNotRestricted(t *testing.T) {
	env, submit, confirm, execute, _ := newTestEnv(t, nil)

	res, err := submit.Deliver(env.ctx(1000, env.signers[0]), env.db, &vaulttest.Tx{Msg: &SubmitMsg{Call: testCall()}})
	require.NoError(t, err)
	id := res.Data

	_, err = confirm.Deliver(env.ctx(1001, env.signers[0]), env.db, &vaulttest.Tx{Msg: &ConfirmMsg{TransactionID: id}})
	require.NoError(t, err)
	_, err = confirm.Deliver(env.ctx(1002, env.signers[1]), env.db, &vaulttest.Tx{Msg: &ConfirmMsg{TransactionID: id}})
	require.NoError(t, err)

	stranger := vaulttest.NewCondition()
	_, err = execute.Deliver(env.ctx(1003, stranger), env.db, &vaulttest.Tx{Msg: &ExecuteMsg{TransactionID: id}})
	require.NoError(t, err)
}

func TestCancel(t *testing.T) {
	env, submit, _, _, cancel := newTestEnv(t, nil)

	res, err := submit.Deliver(env.ctx(1000, env.signers[0]), env.db, &vaulttest.Tx{Msg: &SubmitMsg{Call: testCall()}})
	require.NoError(t, err)
	id := res.Data

	// Neither a random account nor a confirmation-less execute can cancel.
	stranger := vaulttest.NewCondition()
	_, err = cancel.Deliver(env.ctx(1001, stranger), env.db, &vaulttest.Tx{Msg: &CancelMsg{TransactionID: id}})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	// Any signer can cancel.
	_, err = cancel.Deliver(env.ctx(1002, env.signers[2]), env.db, &vaulttest.Tx{Msg: &CancelMsg{TransactionID: id}})
	require.NoError(t, err)

	pending := env.one(t, id)
	assert.True(t, pending.Cancelled)
	// Cancellation drops the calldata.
	assert.Nil(t, pending.Call.Payload)

	_, err = cancel.Deliver(env.ctx(1003, env.owner), env.db, &vaulttest.Tx{Msg: &CancelMsg{TransactionID: id}})
	assert.True(t, ErrAlreadyFinal.Is(err))
}

func TestUpdateConfiguration(t *testing.T) {
	env, _, _, _, _ := newTestEnv(t, nil)

	handler := gconf.NewUpdateConfigurationHandler("ledger", &Configuration{}, env.auth, nil)

	newOwner := vaulttest.NewCondition()
	msg := &UpdateConfigurationMsg{Patch: &Configuration{Owner: newOwner.Address()}}

	// Only the current owner can patch.
	_, err := handler.Deliver(env.ctx(1000, env.signers[0]), env.db, &vaulttest.Tx{Msg: msg})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	_, err = handler.Deliver(env.ctx(1001, env.owner), env.db, &vaulttest.Tx{Msg: msg})
	require.NoError(t, err)

	conf, err := loadConf(env.db)
	require.NoError(t, err)
	assert.Equal(t, newOwner.Address(), conf.Owner)
	// Unpatched fields are preserved.
	assert.Equal(t, int32(2), conf.Threshold)
	assert.Len(t, conf.Signers, 3)
}
