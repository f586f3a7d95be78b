package spending

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/orm"
)

const (
	// BucketName is where we store the spending policies
	BucketName = "spol"
)

// SpendingPolicy caps what a session key may spend of one asset.
//
// MaxPerCall and MaxPerWindow are the configured limits. SpentInWindow and
// WindowStart are runtime accumulators owned exclusively by the enforcement
// path. WindowStart stays zero until the first spend after creation or
// reset, guaranteeing a full window from first use rather than from
// configuration time.
//
// MaxPerWindow of zero means no policy is configured, spending of that
// asset is unrestricted. This is also how a removed policy is stored.
type SpendingPolicy struct {
	MaxPerCall    int64
	MaxPerWindow  int64
	WindowSeconds int64
	SpentInWindow int64
	WindowStart   vault.UnixTime
}

var _ orm.Model = (*SpendingPolicy)(nil)

func (p *SpendingPolicy) Marshal() ([]byte, error) {
	return cbor.Marshal(p)
}

func (p *SpendingPolicy) Unmarshal(raw []byte) error {
	return cbor.Unmarshal(raw, p)
}

func (p *SpendingPolicy) Validate() error {
	if p.MaxPerCall < 0 {
		return errors.Wrap(errors.ErrAmount, "negative per call maximum")
	}
	if p.MaxPerWindow < 0 {
		return errors.Wrap(errors.ErrAmount, "negative per window maximum")
	}
	if p.WindowSeconds < 0 {
		return errors.Wrap(errors.ErrAmount, "negative window length")
	}
	if p.MaxPerWindow > 0 && p.WindowSeconds == 0 {
		return errors.Wrap(errors.ErrAmount, "window length required")
	}
	if p.SpentInWindow < 0 {
		return errors.Wrap(errors.ErrAmount, "negative window spend")
	}
	if p.SpentInWindow > p.MaxPerWindow {
		return errors.Wrap(errors.ErrAmount, "window spend above maximum")
	}
	return nil
}

func (p *SpendingPolicy) Copy() orm.CloneableData {
	return &SpendingPolicy{
		MaxPerCall:    p.MaxPerCall,
		MaxPerWindow:  p.MaxPerWindow,
		WindowSeconds: p.WindowSeconds,
		SpentInWindow: p.SpentInWindow,
		WindowStart:   p.WindowStart,
	}
}

// Configured returns false when the policy should be treated as absent.
func (p *SpendingPolicy) Configured() bool {
	return p.MaxPerWindow > 0
}

// PolicyKey is the primary key of a policy, the concatenation of the
// session key address and the asset address.
func PolicyKey(sessionKey, asset vault.Address) []byte {
	key := make([]byte, 0, len(sessionKey)+len(asset))
	key = append(key, sessionKey...)
	return append(key, asset...)
}

// NewPolicyBucket returns a bucket for keeping spending policies. Policies
// use explicit composite keys, there is no id sequence involved.
func NewPolicyBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &SpendingPolicy{})
}
