package ledger

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/orm"
)

const (
	// BucketName is where we store the pending transactions
	BucketName = "ltx"
)

// PendingTransaction is a call proposal collecting confirmations.
//
// A transaction is final once it was executed or cancelled. Final
// transactions stay in the store as an audit trail but reject any further
// state change.
type PendingTransaction struct {
	Call *vault.CallDescriptor
	// CreatedAt is the engine time when the proposal was submitted.
	CreatedAt vault.UnixTime
	// ExecutedAt is zero until the call was dispatched successfully.
	ExecutedAt vault.UnixTime
	Cancelled  bool
	// Confirmations hold the addresses of signers that approved, in
	// confirmation order. No address appears twice.
	Confirmations []vault.Address
}

var _ orm.Model = (*PendingTransaction)(nil)

func (t *PendingTransaction) Marshal() ([]byte, error) {
	return cbor.Marshal(t)
}

func (t *PendingTransaction) Unmarshal(raw []byte) error {
	return cbor.Unmarshal(raw, t)
}

func (t *PendingTransaction) Validate() error {
	if t.Call == nil {
		return errors.Wrap(errors.ErrEmpty, "call")
	}
	if err := t.Call.Validate(); err != nil {
		return errors.Wrap(err, "call")
	}
	if t.CreatedAt == 0 {
		return errors.Wrap(errors.ErrEmpty, "created at")
	}
	return nil
}

func (t *PendingTransaction) Copy() orm.CloneableData {
	confs := make([]vault.Address, len(t.Confirmations))
	for i, c := range t.Confirmations {
		confs[i] = c.Clone()
	}
	var call *vault.CallDescriptor
	if t.Call != nil {
		call = t.Call.Copy()
	}
	return &PendingTransaction{
		Call:          call,
		CreatedAt:     t.CreatedAt,
		ExecutedAt:    t.ExecutedAt,
		Cancelled:     t.Cancelled,
		Confirmations: confs,
	}
}

// Final returns true when no further state change is allowed.
func (t *PendingTransaction) Final() bool {
	return t.Cancelled || t.ExecutedAt != 0
}

// HasConfirmation returns true if given address already confirmed.
func (t *PendingTransaction) HasConfirmation(a vault.Address) bool {
	for _, c := range t.Confirmations {
		if c.Equals(a) {
			return true
		}
	}
	return false
}

// NewTransactionBucket returns a bucket for keeping pending transactions.
// Transaction keys are assigned by a dedicated sequence, starting from 1.
func NewTransactionBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &PendingTransaction{})
}
