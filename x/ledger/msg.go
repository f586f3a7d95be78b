package ledger

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// Path constants for routing this package messages.
const (
	pathSubmit              = "ledger/submit"
	pathConfirm             = "ledger/confirm"
	pathExecute             = "ledger/execute"
	pathCancel              = "ledger/cancel"
	pathUpdateConfiguration = "ledger/update_configuration"
)

var (
	_ vault.Msg = (*SubmitMsg)(nil)
	_ vault.Msg = (*ConfirmMsg)(nil)
	_ vault.Msg = (*ExecuteMsg)(nil)
	_ vault.Msg = (*CancelMsg)(nil)
	_ vault.Msg = (*UpdateConfigurationMsg)(nil)
)

// SubmitMsg proposes a new call for confirmation.
type SubmitMsg struct {
	Call *vault.CallDescriptor
}

func (m *SubmitMsg) Marshal() ([]byte, error)   { return cbor.Marshal(m) }
func (m *SubmitMsg) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, m) }
func (m *SubmitMsg) Path() string               { return pathSubmit }

func (m *SubmitMsg) Validate() error {
	if m.Call == nil {
		return errors.Wrap(errors.ErrEmpty, "call")
	}
	return errors.Wrap(m.Call.Validate(), "call")
}

// ConfirmMsg adds the callers confirmation to a pending transaction.
type ConfirmMsg struct {
	TransactionID []byte
}

func (m *ConfirmMsg) Marshal() ([]byte, error)   { return cbor.Marshal(m) }
func (m *ConfirmMsg) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, m) }
func (m *ConfirmMsg) Path() string               { return pathConfirm }

func (m *ConfirmMsg) Validate() error {
	return validateTransactionID(m.TransactionID)
}

// ExecuteMsg dispatches a fully confirmed transaction.
type ExecuteMsg struct {
	TransactionID []byte
}

func (m *ExecuteMsg) Marshal() ([]byte, error)   { return cbor.Marshal(m) }
func (m *ExecuteMsg) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, m) }
func (m *ExecuteMsg) Path() string               { return pathExecute }

func (m *ExecuteMsg) Validate() error {
	return validateTransactionID(m.TransactionID)
}

// CancelMsg finalizes a pending transaction without executing it.
type CancelMsg struct {
	TransactionID []byte
}

func (m *CancelMsg) Marshal() ([]byte, error)   { return cbor.Marshal(m) }
func (m *CancelMsg) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, m) }
func (m *CancelMsg) Path() string               { return pathCancel }

func (m *CancelMsg) Validate() error {
	return validateTransactionID(m.TransactionID)
}

// UpdateConfigurationMsg patches the engine configuration. Zero valued
// patch fields are ignored.
type UpdateConfigurationMsg struct {
	Patch *Configuration
}

func (m *UpdateConfigurationMsg) Marshal() ([]byte, error)   { return cbor.Marshal(m) }
func (m *UpdateConfigurationMsg) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, m) }
func (m *UpdateConfigurationMsg) Path() string               { return pathUpdateConfiguration }

func (m *UpdateConfigurationMsg) Validate() error {
	if m.Patch == nil {
		return errors.Wrap(errors.ErrEmpty, "patch")
	}
	return nil
}

func validateTransactionID(id []byte) error {
	if len(id) == 0 {
		return errors.Wrap(errors.ErrEmpty, "transaction id")
	}
	if len(id) != 8 {
		return errors.Wrapf(errors.ErrInput, "transaction id must be 8 bytes, got %d", len(id))
	}
	return nil
}
