package spending

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/gconf"
	"github.com/iov-one/vault/orm"
	"github.com/iov-one/vault/x"
)

const (
	setPolicyCost    int64 = 1
	removePolicyCost int64 = 1
	batchBaseCost    int64 = 1
	batchCallCost    int64 = 1
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r vault.Registry, auth x.Authenticator, disp vault.Dispatcher) {
	bucket := NewPolicyBucket()
	r.Handle(pathSetPolicy, SetPolicyHandler{auth: auth, bucket: bucket})
	r.Handle(pathRemovePolicy, RemovePolicyHandler{auth: auth, bucket: bucket})
	r.Handle(pathExecuteBatch, ExecuteBatchHandler{
		auth: auth,
		ctrl: NewController(bucket),
		disp: disp,
	})
	r.Handle(pathUpdateConfiguration,
		gconf.NewUpdateConfigurationHandler("spending", &Configuration{}, auth, nil))
}

// SetPolicyHandler grants a session key a spending policy for one asset.
// Setting over an existing policy replaces it and resets the accumulators.
type SetPolicyHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ vault.Handler = SetPolicyHandler{}

func (h SetPolicyHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: setPolicyCost}, nil
}

func (h SetPolicyHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	policy := &SpendingPolicy{
		MaxPerCall:    msg.MaxPerCall,
		MaxPerWindow:  msg.MaxPerWindow,
		WindowSeconds: msg.WindowSeconds,
	}
	key := PolicyKey(msg.SessionKey, msg.Asset)
	if _, err := h.bucket.Put(db, key, policy); err != nil {
		return nil, errors.Wrap(err, "store policy")
	}

	return &vault.DeliverResult{
		Data: key,
		Tags: []vault.KVPair{vault.Pair(pathSetPolicy, key)},
	}, nil
}

func (h SetPolicyHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*SetPolicyMsg, error) {
	var msg SetPolicyMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := ownerOnly(ctx, db, h.auth); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RemovePolicyHandler revokes a session keys spending policy for one asset.
// The record is overwritten with a zeroed policy rather than deleted, a
// zeroed policy means unrestricted.
type RemovePolicyHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ vault.Handler = RemovePolicyHandler{}

func (h RemovePolicyHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: removePolicyCost}, nil
}

func (h RemovePolicyHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	key := PolicyKey(msg.SessionKey, msg.Asset)
	if _, err := h.bucket.Put(db, key, &SpendingPolicy{}); err != nil {
		return nil, errors.Wrap(err, "store policy")
	}

	return &vault.DeliverResult{
		Data: key,
		Tags: []vault.KVPair{vault.Pair(pathRemovePolicy, key)},
	}, nil
}

func (h RemovePolicyHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*RemovePolicyMsg, error) {
	var msg RemovePolicyMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := ownerOnly(ctx, db, h.auth); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ExecuteBatchHandler runs a sequence of calls on behalf of a session key.
// Each call is charged against the policy and dispatched in order, so a
// later call in the batch sees the spend of the earlier ones. Any failure
// aborts the whole batch.
type ExecuteBatchHandler struct {
	auth x.Authenticator
	ctrl *Controller
	disp vault.Dispatcher
}

var _ vault.Handler = ExecuteBatchHandler{}

func (h ExecuteBatchHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	msg, _, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return &vault.CheckResult{
		GasAllocated: batchBaseCost + int64(len(msg.Calls))*batchCallCost,
	}, nil
}

func (h ExecuteBatchHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, sessionKey, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}

	for i, call := range msg.Calls {
		if err := h.ctrl.Enforce(db, sessionKey, call, now); err != nil {
			return nil, errors.Wrapf(err, "call %d", i)
		}
		if err := h.disp.Dispatch(db, call); err != nil {
			return nil, errors.Wrapf(err, "dispatch call %d", i)
		}
	}

	return &vault.DeliverResult{
		Data: sessionKey,
		Tags: []vault.KVPair{vault.Pair(pathExecuteBatch, sessionKey)},
	}, nil
}

func (h ExecuteBatchHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ExecuteBatchMsg, vault.Address, error) {
	var msg ExecuteBatchMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	sender := x.MainSigner(ctx, h.auth)
	if sender == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return &msg, sender.Address(), nil
}

// ownerOnly ensures the transaction carries the configuration owners
// signature.
func ownerOnly(ctx vault.Context, db vault.KVStore, auth x.Authenticator) error {
	conf, err := loadConf(db)
	if err != nil {
		return err
	}
	if !auth.HasAddress(ctx, conf.Owner) {
		return errors.Wrap(errors.ErrUnauthorized, "owner signature required")
	}
	return nil
}

func blockNow(ctx vault.Context) (vault.UnixTime, error) {
	now, err := vault.BlockTime(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "block time")
	}
	return vault.AsUnixTime(now), nil
}
