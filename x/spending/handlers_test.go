package spending

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
	session vault.Condition
	asset   vault.Address
}

func newTestEnv(t *testing.T) (*testEnv, SetPolicyHandler, RemovePolicyHandler, ExecuteBatchHandler) {
	t.Helper()

	env := &testEnv{
		db:      store.MemStore(),
		auth:    &vaulttest.CtxAuth{Key: "auth"},
		disp:    &vaulttest.Dispatcher{},
		owner:   vaulttest.NewCondition(),
		session: vaulttest.NewCondition(),
		asset:   vaulttest.NewCondition().Address(),
	}

	conf := Configuration{Owner: env.owner.Address()}
	require.NoError(t, gconf.Save(env.db, "spending", &conf))

	bucket := NewPolicyBucket()
	env.bucket = bucket
	set := SetPolicyHandler{auth: env.auth, bucket: bucket}
	remove := RemovePolicyHandler{auth: env.auth, bucket: bucket}
	batch := ExecuteBatchHandler{auth: env.auth, ctrl: NewController(bucket), disp: env.disp}
	return env, set, remove, batch
}

func (env *testEnv) ctx(now vault.UnixTime, signer vault.Condition) vault.Context {
	ctx := context.Background()
	ctx = vault.WithBlockTime(ctx, time.Unix(int64(now), 0))
	if signer != nil {
		ctx = env.auth.SetConditions(ctx, signer)
	}
	return ctx
}

func (env *testEnv) setPolicy(t *testing.T, set SetPolicyHandler, perCall, perWindow, window int64) {
	t.Helper()
	_, err := set.Deliver(env.ctx(1, env.owner), env.db, &vaulttest.Tx{Msg: &SetPolicyMsg{
		SessionKey:    env.session.Address(),
		Asset:         env.asset,
		MaxPerCall:    perCall,
		MaxPerWindow:  perWindow,
		WindowSeconds: window,
	}})
	require.NoError(t, err)
}

func (env *testEnv) policy(t *testing.T) *SpendingPolicy {
	t.Helper()
	var policy SpendingPolicy
	require.NoError(t, env.bucket.One(env.db, PolicyKey(env.session.Address(), env.asset), &policy))
	return &policy
}

func (env *testEnv) transfer(amount uint64) *vault.CallDescriptor {
	return &vault.CallDescriptor{
		Target:   env.asset,
		Selector: "transfer",
		Payload:  []uint64{42, amount},
	}
}

func TestSetPolicyOwnerOnly(t *testing.T) {
	env, set, remove, _ := newTestEnv(t)

	msg := &SetPolicyMsg{
		SessionKey:    env.session.Address(),
		Asset:         env.asset,
		MaxPerCall:    100,
		MaxPerWindow:  1000,
		WindowSeconds: 3600,
	}
	_, err := set.Deliver(env.ctx(1, env.session), env.db, &vaulttest.Tx{Msg: msg})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	_, err = set.Deliver(env.ctx(1, env.owner), env.db, &vaulttest.Tx{Msg: msg})
	require.NoError(t, err)

	_, err = remove.Deliver(env.ctx(2, env.session), env.db, &vaulttest.Tx{
		Msg: &RemovePolicyMsg{SessionKey: env.session.Address(), Asset: env.asset},
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))
}

func TestWindowLimit(t *testing.T) {
	env, set, _, batch := newTestEnv(t)
	env.setPolicy(t, set, 3500, 5000, 86400)

	// Three spends fill the window exactly.
	for _, amount := range []uint64{500, 1000, 3500} {
		_, err := batch.Deliver(env.ctx(1000, env.session), env.db, &vaulttest.Tx{
			Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{env.transfer(amount)}},
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, env.disp.DispatchCount())
	assert.Equal(t, int64(5000), env.policy(t).SpentInWindow)

	// The window is exhausted, the smallest spend must fail.
	_, err := batch.Deliver(env.ctx(1000, env.session), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{env.transfer(1)}},
	})
	assert.True(t, ErrWindowLimit.Is(err))
	assert.Equal(t, 3, env.disp.DispatchCount())
}

func TestPerCallLimit(t *testing.T) {
	env, set, _, batch := newTestEnv(t)
	env.setPolicy(t, set, 100, 1000, 3600)

	_, err := batch.Deliver(env.ctx(1000, env.session), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{env.transfer(101)}},
	})
	assert.True(t, ErrPerCallLimit.Is(err))
	assert.Equal(t, 0, env.disp.DispatchCount())

	// A failed call leaves the accounting untouched.
	assert.Equal(t, int64(0), env.policy(t).SpentInWindow)
}

func TestWindowStartsWithFirstSpend(t *testing.T) {
	env, set, _, batch := newTestEnv(t)
	env.setPolicy(t, set, 1000, 1000, 100)

	// The policy was created at t=1. The window must begin with the first
	// spend, not with the policy creation.
	_, err := batch.Deliver(env.ctx(5000, env.session), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{env.transfer(600)}},
	})
	require.NoError(t, err)

	policy := env.policy(t)
	assert.Equal(t, vault.UnixTime(5000), policy.WindowStart)
	assert.Equal(t, int64(600), policy.SpentInWindow)
}

func TestWindowRollover(t *testing.T) {
	env, set, _, batch := newTestEnv(t)
	env.setPolicy(t, set, 1000, 1000, 100)

	_, err := batch.Deliver(env.ctx(1000, env.session), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{env.transfer(900)}},
	})
	require.NoError(t, err)

	// Still inside the window, the remaining budget is 100.
	_, err = batch.Deliver(env.ctx(1100, env.session), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{env.transfer(200)}},
	})
	assert.True(t, ErrWindowLimit.Is(err))

	// One second past the window end the budget is reset.
	_, err = batch.Deliver(env.ctx(1101, env.session), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{env.transfer(200)}},
	})
	require.NoError(t, err)

	policy := env.policy(t)
	assert.Equal(t, vault.UnixTime(1101), policy.WindowStart)
	assert.Equal(t, int64(200), policy.SpentInWindow)
}

func TestBatchIsCumulative(t *testing.T) {
	env, set, _, batch := newTestEnv(t)
	env.setPolicy(t, set, 600, 1000, 3600)

	// Both calls pass the per call cap but together break the window cap.
	// The whole batch must fail. The savepoint decorator discards partial
	// writes of a failed delivery, emulated here with a cache wrap.
	cache := env.db.CacheWrap()
	_, err := batch.Deliver(env.ctx(1000, env.session), cache, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{
			env.transfer(600),
			env.transfer(600),
		}},
	})
	assert.True(t, ErrWindowLimit.Is(err))
	cache.Discard()

	// Within the budget both calls dispatch in order.
	_, err = batch.Deliver(env.ctx(1000, env.session), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{
			env.transfer(600),
			env.transfer(400),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), env.policy(t).SpentInWindow)
}

func TestRemovePolicyUnrestricts(t *testing.T) {
	env, set, remove, batch := newTestEnv(t)
	env.setPolicy(t, set, 10, 10, 3600)

	_, err := batch.Deliver(env.ctx(1000, env.session), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{env.transfer(100)}},
	})
	assert.True(t, ErrPerCallLimit.Is(err))

	_, err = remove.Deliver(env.ctx(1001, env.owner), env.db, &vaulttest.Tx{
		Msg: &RemovePolicyMsg{SessionKey: env.session.Address(), Asset: env.asset},
	})
	require.NoError(t, err)

	// Without a policy any amount passes.
	_, err = batch.Deliver(env.ctx(1002, env.session), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{env.transfer(1 << 40)}},
	})
	require.NoError(t, err)
}

func TestUntrackedSelectorPasses(t *testing.T) {
	env, set, _, batch := newTestEnv(t)
	env.setPolicy(t, set, 10, 10, 3600)

	// Selectors that move no value are not charged against the policy.
	call := &vault.CallDescriptor{
		Target:   env.asset,
		Selector: "set_owner",
		Payload:  []uint64{1, 999999},
	}
	_, err := batch.Deliver(env.ctx(1000, env.session), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{call}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), env.policy(t).SpentInWindow)
}

func TestOtherAssetNotAffected(t *testing.T) {
	env, set, _, batch := newTestEnv(t)
	env.setPolicy(t, set, 10, 10, 3600)

	// A policy binds one asset only.
	other := &vault.CallDescriptor{
		Target:   vaulttest.NewCondition().Address(),
		Selector: "transfer",
		Payload:  []uint64{42, 100000},
	}
	_, err := batch.Deliver(env.ctx(1000, env.session), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{other}},
	})
	require.NoError(t, err)
}

func TestTransferFromAmountOffset(t *testing.T) {
	env, set, _, batch := newTestEnv(t)
	env.setPolicy(t, set, 100, 1000, 3600)

	// transfer_from carries (from, to, amount), the amount is the third
	// payload word.
	call := &vault.CallDescriptor{
		Target:   env.asset,
		Selector: "transfer_from",
		Payload:  []uint64{1, 2, 99},
	}
	_, err := batch.Deliver(env.ctx(1000, env.session), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{call}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(99), env.policy(t).SpentInWindow)

	// A payload too short to carry the amount is rejected.
	short := &vault.CallDescriptor{
		Target:   env.asset,
		Selector: "transfer_from",
		Payload:  []uint64{1, 2},
	}
	_, err = batch.Deliver(env.ctx(1001, env.session), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{short}},
	})
	assert.True(t, errors.ErrInput.Is(err))
}

func TestBatchRequiresSigner(t *testing.T) {
	env, _, _, batch := newTestEnv(t)

	_, err := batch.Deliver(env.ctx(1000, nil), env.db, &vaulttest.Tx{
		Msg: &ExecuteBatchMsg{Calls: []*vault.CallDescriptor{env.transfer(1)}},
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))
}
