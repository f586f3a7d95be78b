package timelock

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/gconf"
)

// Configuration is the singleton state of the timelock engine.
//
// Owner can change this configuration. Schedulers are the addresses allowed
// to create, cancel and extend locks. The owner is always implicitly a
// scheduler. Execution is deliberately not listed here, any caller can
// execute an unlocked entry.
type Configuration struct {
	Owner      vault.Address
	Schedulers []vault.Address
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
	if err := c.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	for i, s := range c.Schedulers {
		if err := s.Validate(); err != nil {
			return errors.Wrapf(err, "scheduler #%d", i)
		}
	}
	return nil
}

// CanSchedule returns true if given address is allowed to create, cancel or
// extend time locks.
func (c *Configuration) CanSchedule(a vault.Address) bool {
	if c.Owner.Equals(a) {
		return true
	}
	for _, s := range c.Schedulers {
		if s.Equals(a) {
			return true
		}
	}
	return false
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, "timelock", &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}
