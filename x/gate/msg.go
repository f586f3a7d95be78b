package gate

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// Path constants for routing this package messages.
const (
	pathSetPaused           = "gate/set_paused"
	pathUpdateConfiguration = "gate/update_configuration"
)

var (
	_ vault.Msg = (*SetPausedMsg)(nil)
	_ vault.Msg = (*UpdateConfigurationMsg)(nil)
)

// SetPausedMsg flips the pause switch. A configuration patch cannot carry a
// false value, hence the explicit message.
type SetPausedMsg struct {
	Paused bool
}

func (m *SetPausedMsg) Marshal() ([]byte, error)   { return cbor.Marshal(m) }
func (m *SetPausedMsg) Unmarshal(raw []byte) error { return cbor.Unmarshal(raw, m) }
func (m *SetPausedMsg) Path() string               { return pathSetPaused }
func (m *SetPausedMsg) Validate() error            { return nil }

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
