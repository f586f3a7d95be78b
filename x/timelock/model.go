package timelock

import (
	"encoding/binary"

	"github.com/fxamacker/cbor/v2"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/orm"
)

const (
	// BucketName is where we store the time lock entries
	BucketName = "tlock"
	// ScheduleIndexName is the unique index over active schedules
	ScheduleIndexName = "schedule"
)

// LockState is an explicit state tag of a time lock entry. An entry starts
// Active and ends in exactly one of the terminal states.
type LockState int32

const (
	StateActive LockState = iota + 1
	StateExecuted
	StateCancelled
)

func (s LockState) Validate() error {
	switch s {
	case StateActive, StateExecuted, StateCancelled:
		return nil
	default:
		return errors.Wrapf(errors.ErrState, "unknown lock state %d", s)
	}
}

// TimeLockEntry is a call deferred until an absolute unlock time.
//
// Cancellation clears the payload, execution retains it for audit.
type TimeLockEntry struct {
	Call     *vault.CallDescriptor
	UnlockAt vault.UnixTime
	State    LockState
}

var _ orm.Model = (*TimeLockEntry)(nil)

func (e *TimeLockEntry) Marshal() ([]byte, error) {
	return cbor.Marshal(e)
}

func (e *TimeLockEntry) Unmarshal(raw []byte) error {
	return cbor.Unmarshal(raw, e)
}

func (e *TimeLockEntry) Validate() error {
	if e.Call == nil {
		return errors.Wrap(errors.ErrEmpty, "call")
	}
	if err := e.Call.Validate(); err != nil {
		return errors.Wrap(err, "call")
	}
	if e.UnlockAt == 0 {
		return errors.Wrap(errors.ErrEmpty, "unlock at")
	}
	return e.State.Validate()
}

func (e *TimeLockEntry) Copy() orm.CloneableData {
	var call *vault.CallDescriptor
	if e.Call != nil {
		call = e.Call.Copy()
	}
	return &TimeLockEntry{
		Call:     call,
		UnlockAt: e.UnlockAt,
		State:    e.State,
	}
}

// Active returns true while the entry can still be executed, cancelled or
// extended.
func (e *TimeLockEntry) Active() bool {
	return e.State == StateActive
}

// ScheduleKey is the composite (target, selector, unlock time) key that must
// be unique among active entries. The big-endian time suffix keeps the keys
// ordered by unlock time within one call shape.
func ScheduleKey(target vault.Address, selector string, unlockAt vault.UnixTime) []byte {
	key := make([]byte, 0, len(target)+len(selector)+8)
	key = append(key, target...)
	key = append(key, selector...)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(unlockAt))
	return append(key, ts[:]...)
}

// scheduleIndexer indexes only active entries. Terminal entries return a nil
// key which removes them from the index, freeing the triple for reuse.
func scheduleIndexer(obj orm.Object) ([]byte, error) {
	if obj == nil || obj.Value() == nil {
		return nil, nil
	}
	e, ok := obj.Value().(*TimeLockEntry)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "unexpected type %T", obj.Value())
	}
	if !e.Active() {
		return nil, nil
	}
	return ScheduleKey(e.Call.Target, e.Call.Selector, e.UnlockAt), nil
}

// NewLockBucket returns a bucket for keeping time lock entries, with the
// unique schedule index maintained on every write.
func NewLockBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &TimeLockEntry{},
		orm.WithIndex(ScheduleIndexName, scheduleIndexer, true))
}
