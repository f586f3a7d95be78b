package timelock

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// Path constants for routing this package messages.
const (
	pathCreate              = "timelock/create"
	pathExecute             = "timelock/execute"
	pathCancel              = "timelock/cancel"
	pathExtend              = "timelock/extend"
	pathUpdateConfiguration = "timelock/update_configuration"
)

var (
	_ vault.Msg = (*CreateMsg)(nil)
	_ vault.Msg = (*ExecuteMsg)(nil)
	_ vault.Msg = (*CancelMsg)(nil)
	_ vault.Msg = (*ExtendMsg)(nil)
	_ vault.Msg = (*UpdateConfigurationMsg)(nil)
)

// CreateMsg schedules a new call, unlocked DelaySeconds from now.
type CreateMsg struct {
	Call         *vault.CallDescriptor
	DelaySeconds int64
}

func (m *CreateMsg) Marshal() ([]byte, error)   { return cbor.Marshal(m) }
func (m *CreateMsg) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, m) }
func (m *CreateMsg) Path() string               { return pathCreate }

func (m *CreateMsg) Validate() error {
	if m.Call == nil {
		return errors.Wrap(errors.ErrEmpty, "call")
	}
	if err := m.Call.Validate(); err != nil {
		return errors.Wrap(err, "call")
	}
	if m.DelaySeconds < 0 {
		return errors.Wrapf(errors.ErrInput, "negative delay %d", m.DelaySeconds)
	}
	return nil
}

// ExecuteMsg dispatches an unlocked entry.
type ExecuteMsg struct {
	LockID []byte
}

func (m *ExecuteMsg) Marshal() ([]byte, error)   { return cbor.Marshal(m) }
func (m *ExecuteMsg) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, m) }
func (m *ExecuteMsg) Path() string               { return pathExecute }

func (m *ExecuteMsg) Validate() error {
	return validateLockID(m.LockID)
}

// CancelMsg finalizes an entry without executing it.
type CancelMsg struct {
	LockID []byte
}

func (m *CancelMsg) Marshal() ([]byte, error)   { return cbor.Marshal(m) }
func (m *CancelMsg) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, m) }
func (m *CancelMsg) Path() string               { return pathCancel }

func (m *CancelMsg) Validate() error {
	return validateLockID(m.LockID)
}

// ExtendMsg moves the unlock time of an active entry to now plus
// AdditionalSeconds. The new unlock time is relative to the current time,
// never to the original unlock time.
type ExtendMsg struct {
	LockID            []byte
	AdditionalSeconds int64
}

func (m *ExtendMsg) Marshal() ([]byte, error)   { return cbor.Marshal(m) }
func (m *ExtendMsg) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, m) }
func (m *ExtendMsg) Path() string               { return pathExtend }

func (m *ExtendMsg) Validate() error {
	if err := validateLockID(m.LockID); err != nil {
		return err
	}
	if m.AdditionalSeconds < 0 {
		return errors.Wrapf(errors.ErrInput, "negative extension %d", m.AdditionalSeconds)
	}
	return nil
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

func validateLockID(id []byte) error {
	if len(id) == 0 {
		return errors.Wrap(errors.ErrEmpty, "lock id")
	}
	if len(id) != 8 {
		return errors.Wrapf(errors.ErrInput, "lock id must be 8 bytes, got %d", len(id))
	}
	return nil
}
