package ledger

import (
	"github.com/iov-one/vault/errors"
)

var (
	// ErrAlreadyFinal is returned when acting on a transaction that was
	// already executed or cancelled.
	ErrAlreadyFinal = errors.Register(1200, "transaction already finalized")

	// ErrThresholdNotMet is returned when executing a transaction that
	// does not have enough confirmations yet.
	ErrThresholdNotMet = errors.Register(1201, "confirmation threshold not met")
)
