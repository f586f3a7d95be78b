package timelock

import (
	"bytes"
	"time"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/gconf"
	"github.com/iov-one/vault/orm"
	"github.com/iov-one/vault/x"
)

const (
	createCost  int64 = 1
	executeCost int64 = 2
	cancelCost  int64 = 1
	extendCost  int64 = 1
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r vault.Registry, auth x.Authenticator, disp vault.Dispatcher) {
	bucket := NewLockBucket()
	r.Handle(pathCreate, CreateHandler{auth: auth, bucket: bucket})
	r.Handle(pathExecute, ExecuteHandler{auth: auth, bucket: bucket, disp: disp})
	r.Handle(pathCancel, CancelHandler{auth: auth, bucket: bucket})
	r.Handle(pathExtend, ExtendHandler{auth: auth, bucket: bucket})
	r.Handle(pathUpdateConfiguration,
		gconf.NewUpdateConfigurationHandler("timelock", &Configuration{}, auth, nil))
}

// CreateHandler schedules a new time lock.
type CreateHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ vault.Handler = CreateHandler{}

func (h CreateHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: createCost}, nil
}

func (h CreateHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}
	unlockAt := now.Add(asDuration(msg.DelaySeconds))

	if err := ensureFreeSchedule(db, h.bucket, msg.Call.Target, msg.Call.Selector, unlockAt, nil); err != nil {
		return nil, err
	}

	entry := &TimeLockEntry{
		Call:     msg.Call.Copy(),
		UnlockAt: unlockAt,
		State:    StateActive,
	}
	id, err := h.bucket.Put(db, nil, entry)
	if err != nil {
		return nil, errors.Wrap(err, "store lock")
	}

	return &vault.DeliverResult{
		Data: id,
		Tags: []vault.KVPair{vault.Pair(pathCreate, id)},
	}, nil
}

func (h CreateHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*CreateMsg, error) {
	var msg CreateMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if err := schedulingParticipant(ctx, h.auth, conf); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ensureFreeSchedule returns ErrDuplicateSchedule when another active entry
// already occupies the (target, selector, unlock) triple. The own id, when
// given, is excluded so that an extension to the same time is a noop and
// not a collision.
func ensureFreeSchedule(db vault.KVStore, bucket orm.ModelBucket, target vault.Address, selector string, unlockAt vault.UnixTime, ownID []byte) error {
	var existing []TimeLockEntry
	keys, err := bucket.ByIndex(db, ScheduleIndexName, ScheduleKey(target, selector, unlockAt), &existing)
	if err != nil {
		return errors.Wrap(err, "schedule index")
	}
	for _, key := range keys {
		if ownID != nil && bytes.Equal(key, ownID) {
			continue
		}
		return errors.Wrapf(ErrDuplicateSchedule,
			"%s %s at %s is taken by lock %x", target, selector, unlockAt, key)
	}
	return nil
}

// ExecuteHandler dispatches an entry once its unlock time was reached. A
// failed dispatch leaves the entry active so the execution can be retried.
type ExecuteHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	disp   vault.Dispatcher
}

var _ vault.Handler = ExecuteHandler{}

func (h ExecuteHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: executeCost}, nil
}

func (h ExecuteHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, entry, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if err := h.disp.Dispatch(db, entry.Call); err != nil {
		return nil, errors.Wrap(err, "dispatch")
	}

	entry.State = StateExecuted
	if _, err := h.bucket.Put(db, msg.LockID, entry); err != nil {
		return nil, errors.Wrap(err, "store lock")
	}

	return &vault.DeliverResult{
		Data: msg.LockID,
		Tags: []vault.KVPair{vault.Pair(pathExecute, msg.LockID)},
	}, nil
}

func (h ExecuteHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ExecuteMsg, *TimeLockEntry, error) {
	var msg ExecuteMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}

	var entry TimeLockEntry
	if err := h.bucket.One(db, msg.LockID, &entry); err != nil {
		return nil, nil, errors.Wrap(err, "lock")
	}
	if !entry.Active() {
		return nil, nil, errors.Wrapf(ErrAlreadyDone, "lock %x", msg.LockID)
	}
	// Execution at exactly the unlock time is allowed.
	if !vault.IsExpired(ctx, entry.UnlockAt) {
		return nil, nil, errors.Wrapf(ErrNotUnlocked, "unlocks at %s", entry.UnlockAt)
	}
	return &msg, &entry, nil
}

// CancelHandler finalizes an entry without executing it. The payload is
// cleared and the schedule index entry released.
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
	msg, entry, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	entry.State = StateCancelled
	entry.Call.Payload = nil
	if _, err := h.bucket.Put(db, msg.LockID, entry); err != nil {
		return nil, errors.Wrap(err, "store lock")
	}

	return &vault.DeliverResult{
		Data: msg.LockID,
		Tags: []vault.KVPair{vault.Pair(pathCancel, msg.LockID)},
	}, nil
}

func (h CancelHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*CancelMsg, *TimeLockEntry, error) {
	var msg CancelMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if err := schedulingParticipant(ctx, h.auth, conf); err != nil {
		return nil, nil, err
	}

	var entry TimeLockEntry
	if err := h.bucket.One(db, msg.LockID, &entry); err != nil {
		return nil, nil, errors.Wrap(err, "lock")
	}
	if !entry.Active() {
		return nil, nil, errors.Wrapf(ErrAlreadyDone, "lock %x", msg.LockID)
	}
	return &msg, &entry, nil
}

// ExtendHandler moves the unlock time of an active entry further into the
// future. The schedule index entry is swapped in the same write set as the
// entry update, there is no moment where index and entry disagree.
type ExtendHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ vault.Handler = ExtendHandler{}

func (h ExtendHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: extendCost}, nil
}

func (h ExtendHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, entry, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}
	// Always relative to the current time, never to the old unlock time.
	unlockAt := now.Add(asDuration(msg.AdditionalSeconds))

	if err := ensureFreeSchedule(db, h.bucket, entry.Call.Target, entry.Call.Selector, unlockAt, msg.LockID); err != nil {
		return nil, err
	}

	entry.UnlockAt = unlockAt
	if _, err := h.bucket.Put(db, msg.LockID, entry); err != nil {
		return nil, errors.Wrap(err, "store lock")
	}

	return &vault.DeliverResult{
		Data: msg.LockID,
		Tags: []vault.KVPair{vault.Pair(pathExtend, msg.LockID)},
	}, nil
}

func (h ExtendHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ExtendMsg, *TimeLockEntry, error) {
	var msg ExtendMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if err := schedulingParticipant(ctx, h.auth, conf); err != nil {
		return nil, nil, err
	}

	var entry TimeLockEntry
	if err := h.bucket.One(db, msg.LockID, &entry); err != nil {
		return nil, nil, errors.Wrap(err, "lock")
	}
	if !entry.Active() {
		return nil, nil, errors.Wrapf(ErrAlreadyDone, "lock %x", msg.LockID)
	}
	return &msg, &entry, nil
}

// schedulingParticipant ensures the transaction carries a signature of an
// address allowed to manage schedules.
func schedulingParticipant(ctx vault.Context, auth x.Authenticator, conf *Configuration) error {
	sender := x.MainSigner(ctx, auth)
	if sender == nil {
		return errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	if !conf.CanSchedule(sender.Address()) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s cannot schedule", sender.Address())
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

func asDuration(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}
