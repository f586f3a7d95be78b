package vault

import (
	"github.com/tendermint/tendermint/libs/common"
)

// CheckResult captures any non-error result of a validation pass,
// to make sure people use error for error cases
type CheckResult struct {
	// Data is a machine-parseable return value, like id of created entity
	Data []byte
	// Log is human-readable informational string
	Log string
	// GasAllocated is the maximum units of work we allow this tx to perform
	GasAllocated int64
}

// NewCheck sets the gas used and the log message but no more info.
// These are the most common info needed to be set by the Handler.
func NewCheck(gasAllocated int64, log string) *CheckResult {
	return &CheckResult{
		GasAllocated: gasAllocated,
		Log:          log,
	}
}

// DeliverResult captures any non-error result of an execution pass,
// to make sure people use error for error cases
type DeliverResult struct {
	// Data is a machine-parseable return value, like id of created entity
	Data []byte
	// Log is human-readable informational string
	Log string
	// Tags are used by off-chain indexers to index and search the
	// operation history. Every successful mutating operation emits
	// exactly one tag; failed operations emit none.
	Tags []common.KVPair
	// GasUsed is the amount of work that was performed
	GasUsed int64
}

// KVPair is the tag type emitted with every successful delivery.
type KVPair = common.KVPair

// Pair is a shorthand to construct a single event tag.
func Pair(key string, value []byte) common.KVPair {
	return common.KVPair{Key: []byte(key), Value: value}
}
