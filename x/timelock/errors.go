package timelock

import (
	"github.com/iov-one/vault/errors"
)

var (
	// ErrNotUnlocked is returned when executing a lock before its unlock
	// time.
	ErrNotUnlocked = errors.Register(1210, "not yet unlocked")

	// ErrAlreadyDone is returned when acting on a lock that was already
	// executed or cancelled.
	ErrAlreadyDone = errors.Register(1211, "lock already finalized")

	// ErrDuplicateSchedule is returned when creating or extending a lock
	// would collide with an active schedule for the same call and time.
	ErrDuplicateSchedule = errors.Register(1212, "duplicate schedule")
)
