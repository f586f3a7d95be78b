package spending

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// Path constants for routing this package messages.
const (
	pathSetPolicy           = "spending/set_policy"
	pathRemovePolicy        = "spending/remove_policy"
	pathExecuteBatch        = "spending/execute_batch"
	pathUpdateConfiguration = "spending/update_configuration"
)

var (
	_ vault.Msg = (*SetPolicyMsg)(nil)
	_ vault.Msg = (*RemovePolicyMsg)(nil)
	_ vault.Msg = (*ExecuteBatchMsg)(nil)
	_ vault.Msg = (*UpdateConfigurationMsg)(nil)
)

// SetPolicyMsg grants or replaces the spending policy of a session key for
// one asset. Setting over an existing policy resets the accumulators.
type SetPolicyMsg struct {
	SessionKey    vault.Address
	Asset         vault.Address
	MaxPerCall    int64
	MaxPerWindow  int64
	WindowSeconds int64
}

func (m *SetPolicyMsg) Marshal() ([]byte, error)   { return cbor.Marshal(m) }
func (m *SetPolicyMsg) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, m) }
func (m *SetPolicyMsg) Path() string               { return pathSetPolicy }

func (m *SetPolicyMsg) Validate() error {
	if err := m.SessionKey.Validate(); err != nil {
		return errors.Wrap(err, "session key")
	}
	if err := m.Asset.Validate(); err != nil {
		return errors.Wrap(err, "asset")
	}
	if m.MaxPerCall <= 0 {
		return errors.Wrap(errors.ErrAmount, "per call maximum must be positive")
	}
	if m.MaxPerWindow <= 0 {
		return errors.Wrap(errors.ErrAmount, "per window maximum must be positive")
	}
	if m.WindowSeconds <= 0 {
		return errors.Wrap(errors.ErrAmount, "window length must be positive")
	}
	if m.MaxPerCall > m.MaxPerWindow {
		return errors.Wrap(errors.ErrAmount, "per call maximum above window maximum")
	}
	return nil
}

// RemovePolicyMsg revokes the spending policy of a session key for one
// asset, making spends of that asset unrestricted again.
type RemovePolicyMsg struct {
	SessionKey vault.Address
	Asset      vault.Address
}

func (m *RemovePolicyMsg) Marshal() ([]byte, error)   { return cbor.Marshal(m) }
func (m *RemovePolicyMsg) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, m) }
func (m *RemovePolicyMsg) Path() string               { return pathRemovePolicy }

func (m *RemovePolicyMsg) Validate() error {
	if err := m.SessionKey.Validate(); err != nil {
		return errors.Wrap(err, "session key")
	}
	return errors.Wrap(m.Asset.Validate(), "asset")
}

// ExecuteBatchMsg executes a sequence of calls under the senders spending
// policies. The whole batch succeeds or fails as one.
type ExecuteBatchMsg struct {
	Calls []*vault.CallDescriptor
}

func (m *ExecuteBatchMsg) Marshal() ([]byte, error)   { return cbor.Marshal(m) }
func (m *ExecuteBatchMsg) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, m) }
func (m *ExecuteBatchMsg) Path() string               { return pathExecuteBatch }

func (m *ExecuteBatchMsg) Validate() error {
	if len(m.Calls) == 0 {
		return errors.Wrap(errors.ErrEmpty, "calls")
	}
	for i, call := range m.Calls {
		if call == nil {
			return errors.Wrapf(errors.ErrEmpty, "call %d", i)
		}
		if err := call.Validate(); err != nil {
			return errors.Wrapf(err, "call %d", i)
		}
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
