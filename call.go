package vault

import (
	"regexp"

	"github.com/fxamacker/cbor/v2"

	"github.com/iov-one/vault/errors"
)

var isSelector = regexp.MustCompile(`^[a-zA-Z0-9_]{1,64}$`).MatchString

// maxPayloadWords bounds the calldata size so that a single record in the
// store stays O(1) fixed fields.
const maxPayloadWords = 256

// CallDescriptor describes a single call that the vault is asked to gate:
// a target contract, the entry point to invoke, the calldata as an ordered
// word sequence and the monetary value attached to the call.
//
// A descriptor is immutable once recorded. Engines that clear the payload
// on cancellation replace the whole descriptor instead of mutating it.
type CallDescriptor struct {
	Target   Address
	Selector string
	Payload  []uint64
	Value    int64
}

var _ Persistent = (*CallDescriptor)(nil)

func (c *CallDescriptor) Validate() error {
	if err := c.Target.Validate(); err != nil {
		return errors.Wrap(err, "target")
	}
	if !isSelector(c.Selector) {
		return errors.Wrapf(errors.ErrInput, "selector %q", c.Selector)
	}
	if len(c.Payload) > maxPayloadWords {
		return errors.Wrapf(errors.ErrInput, "payload of %d words", len(c.Payload))
	}
	if c.Value < 0 {
		return errors.Wrapf(errors.ErrAmount, "negative value %d", c.Value)
	}
	return nil
}

// Copy returns a deep copy of this descriptor.
func (c *CallDescriptor) Copy() *CallDescriptor {
	payload := make([]uint64, len(c.Payload))
	copy(payload, c.Payload)
	return &CallDescriptor{
		Target:   c.Target.Clone(),
		Selector: c.Selector,
		Payload:  payload,
		Value:    c.Value,
	}
}

func (c *CallDescriptor) Marshal() ([]byte, error) {
	return cbor.Marshal(c)
}

func (c *CallDescriptor) Unmarshal(raw []byte) error {
	return cbor.Unmarshal(raw, c)
}

// Dispatcher performs the call that an engine decided to let through. This
// is a consumed collaborator: the implementation is provided by the
// integration layer and is expected to be synchronous with no partial
// application on failure.
//
// A dispatch failure must leave the owning entity non-final so that a
// transient downstream problem never consumes a valid proposal.
type Dispatcher interface {
	Dispatch(db KVStore, call *CallDescriptor) error
}
