package ledger

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/gconf"
	"github.com/iov-one/vault/orm"
	"github.com/iov-one/vault/x"
)

const (
	submitCost  int64 = 1
	confirmCost int64 = 1
	executeCost int64 = 2
	cancelCost  int64 = 1
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r vault.Registry, auth x.Authenticator, disp vault.Dispatcher) {
	bucket := NewTransactionBucket()
	r.Handle(pathSubmit, SubmitHandler{auth: auth, bucket: bucket})
	r.Handle(pathConfirm, ConfirmHandler{auth: auth, bucket: bucket})
	r.Handle(pathExecute, ExecuteHandler{auth: auth, bucket: bucket, disp: disp})
	r.Handle(pathCancel, CancelHandler{auth: auth, bucket: bucket})
	r.Handle(pathUpdateConfiguration,
		gconf.NewUpdateConfigurationHandler("ledger", &Configuration{}, auth, nil))
}

// SubmitHandler creates a new pending transaction. The submitter does not
// confirm implicitly, an explicit confirmation is always required.
type SubmitHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ vault.Handler = SubmitHandler{}

func (h SubmitHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: submitCost}, nil
}

func (h SubmitHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, _, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}

	pending := &PendingTransaction{
		Call:      msg.Call.Copy(),
		CreatedAt: now,
	}
	id, err := h.bucket.Put(db, nil, pending)
	if err != nil {
		return nil, errors.Wrap(err, "store transaction")
	}

	return &vault.DeliverResult{
		Data: id,
		Tags: []vault.KVPair{vault.Pair(pathSubmit, id)},
	}, nil
}

func (h SubmitHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*SubmitMsg, *Configuration, error) {
	var msg SubmitMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if _, err := signingParticipant(ctx, h.auth, conf); err != nil {
		return nil, nil, err
	}
	return &msg, conf, nil
}

// ConfirmHandler records a signer confirmation. Confirming twice is a noop,
// confirming a final transaction is an error.
type ConfirmHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ vault.Handler = ConfirmHandler{}

func (h ConfirmHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: confirmCost}, nil
}

func (h ConfirmHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, pending, sender, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// Confirmation is idempotent. Confirming again must not fail so that
	// a re-sent approval never poisons the flow.
	if !pending.HasConfirmation(sender) {
		pending.Confirmations = append(pending.Confirmations, sender)
		if _, err := h.bucket.Put(db, msg.TransactionID, pending); err != nil {
			return nil, errors.Wrap(err, "store transaction")
		}
	}

	return &vault.DeliverResult{
		Data: msg.TransactionID,
		Tags: []vault.KVPair{vault.Pair(pathConfirm, msg.TransactionID)},
	}, nil
}

func (h ConfirmHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ConfirmMsg, *PendingTransaction, vault.Address, error) {
	var msg ConfirmMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, nil, err
	}
	sender, err := signingParticipant(ctx, h.auth, conf)
	if err != nil {
		return nil, nil, nil, err
	}

	var pending PendingTransaction
	if err := h.bucket.One(db, msg.TransactionID, &pending); err != nil {
		return nil, nil, nil, errors.Wrap(err, "transaction")
	}
	if pending.Final() {
		return nil, nil, nil, errors.Wrapf(ErrAlreadyFinal, "transaction %x", msg.TransactionID)
	}
	return &msg, &pending, sender, nil
}

// ExecuteHandler dispatches a transaction that collected enough
// confirmations. A failed dispatch leaves the transaction untouched so the
// execution can be retried.
type ExecuteHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	disp   vault.Dispatcher
}

var _ vault.Handler = ExecuteHandler{}

func (h ExecuteHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: executeCost}, nil
}

func (h ExecuteHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, pending, conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if len(pending.Confirmations) < int(conf.Threshold) {
		return nil, errors.Wrapf(ErrThresholdNotMet,
			"%d of %d confirmations", len(pending.Confirmations), conf.Threshold)
	}

	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.disp.Dispatch(db, pending.Call); err != nil {
		return nil, errors.Wrap(err, "dispatch")
	}

	pending.ExecutedAt = now
	if _, err := h.bucket.Put(db, msg.TransactionID, pending); err != nil {
		return nil, errors.Wrap(err, "store transaction")
	}

	return &vault.DeliverResult{
		Data: msg.TransactionID,
		Tags: []vault.KVPair{vault.Pair(pathExecute, msg.TransactionID)},
	}, nil
}

func (h ExecuteHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ExecuteMsg, *PendingTransaction, *Configuration, error) {
	var msg ExecuteMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, nil, err
	}
	if conf.ExecuteRestricted {
		if _, err := signingParticipant(ctx, h.auth, conf); err != nil {
			return nil, nil, nil, err
		}
	}

	var pending PendingTransaction
	if err := h.bucket.One(db, msg.TransactionID, &pending); err != nil {
		return nil, nil, nil, errors.Wrap(err, "transaction")
	}
	if pending.Final() {
		return nil, nil, nil, errors.Wrapf(ErrAlreadyFinal, "transaction %x", msg.TransactionID)
	}
	return &msg, &pending, conf, nil
}

// CancelHandler finalizes a transaction without executing it. Cancellation
// is allowed for the configuration owner and for any signer. The call
// payload is dropped so that stale calldata does not linger in the store.
type CancelHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ vault.Handler = CancelHandler{}

func (h CancelHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: cancelCost}, nil
}

func (h CancelHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, pending, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	pending.Cancelled = true
	pending.Call.Payload = nil
	if _, err := h.bucket.Put(db, msg.TransactionID, pending); err != nil {
		return nil, errors.Wrap(err, "store transaction")
	}

	return &vault.DeliverResult{
		Data: msg.TransactionID,
		Tags: []vault.KVPair{vault.Pair(pathCancel, msg.TransactionID)},
	}, nil
}

func (h CancelHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*CancelMsg, *PendingTransaction, error) {
	var msg CancelMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, conf.Owner) {
		if _, err := signingParticipant(ctx, h.auth, conf); err != nil {
			return nil, nil, errors.Wrap(errors.ErrUnauthorized, "owner or signer signature required")
		}
	}

	var pending PendingTransaction
	if err := h.bucket.One(db, msg.TransactionID, &pending); err != nil {
		return nil, nil, errors.Wrap(err, "transaction")
	}
	if pending.Final() {
		return nil, nil, errors.Wrapf(ErrAlreadyFinal, "transaction %x", msg.TransactionID)
	}
	return &msg, &pending, nil
}

// signingParticipant returns the main signer address if it belongs to the
// configured signer set.
func signingParticipant(ctx vault.Context, auth x.Authenticator, conf *Configuration) (vault.Address, error) {
	sender := x.MainSigner(ctx, auth)
	if sender == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	addr := sender.Address()
	if !conf.IsSigner(addr) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%s is not a signer", addr)
	}
	return addr, nil
}

func blockNow(ctx vault.Context) (vault.UnixTime, error) {
	now, err := vault.BlockTime(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "block time")
	}
	return vault.AsUnixTime(now), nil
}
