package gate

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/gconf"
)

// Configuration is the singleton state of the gate. Only the owner may flip
// the pause switch.
type Configuration struct {
	Owner  vault.Address
	Paused bool
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

func (c *Configuration) Marshal() ([]byte, error) {
	return cbor.Marshal(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	return cbor.Unmarshal(raw, c)
}

func (c *Configuration) GetOwner() vault.Address {
	return c.Owner
}

func (c *Configuration) Validate() error {
	return errors.Wrap(c.Owner.Validate(), "owner")
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, "gate", &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}
