package ledger

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/gconf"
)

// Configuration is the singleton state of the ledger engine.
//
// Owner can change this configuration and cancel pending transactions.
// Signers is the fixed set of addresses allowed to submit and confirm.
// Threshold is the number of distinct confirmations required to execute.
// When ExecuteRestricted is set, only signers can trigger execution.
// Otherwise anyone can execute a fully confirmed transaction.
type Configuration struct {
	Owner             vault.Address
	Signers           []vault.Address
	Threshold         int32
	ExecuteRestricted bool
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
	if len(c.Signers) == 0 {
		return errors.Wrap(errors.ErrEmpty, "signers")
	}
	for i, s := range c.Signers {
		if err := s.Validate(); err != nil {
			return errors.Wrapf(err, "signer #%d", i)
		}
		for _, prev := range c.Signers[:i] {
			if s.Equals(prev) {
				return errors.Wrapf(errors.ErrDuplicate, "signer %s", s)
			}
		}
	}
	if c.Threshold < 1 {
		return errors.Wrap(errors.ErrAmount, "threshold must be at least 1")
	}
	if int(c.Threshold) > len(c.Signers) {
		return errors.Wrapf(errors.ErrAmount,
			"threshold %d cannot be greater than the number of signers %d",
			c.Threshold, len(c.Signers))
	}
	return nil
}

// IsSigner returns true if given address belongs to the signer set.
func (c *Configuration) IsSigner(a vault.Address) bool {
	for _, s := range c.Signers {
		if s.Equals(a) {
			return true
		}
	}
	return false
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, "ledger", &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}
