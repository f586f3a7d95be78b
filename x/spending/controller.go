package spending

import (
	"time"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/orm"
)

// spendingSelectors maps tracked call selectors to the index of the payload
// word that carries the amount. Calls with any other selector move no value
// and pass enforcement untouched.
var spendingSelectors = map[string]int{
	"transfer":           1,
	"approve":            1,
	"increase_allowance": 1,
	"increaseAllowance":  1,
	"transfer_from":      2,
	"transferFrom":       2,
}

// Controller maintains the spending policy accounting. All writes to the
// accumulator fields of a policy go through Enforce.
type Controller struct {
	bucket orm.ModelBucket
}

func NewController(bucket orm.ModelBucket) *Controller {
	return &Controller{bucket: bucket}
}

// Policy returns the policy of a session key for an asset, or nil when
// none is configured.
func (c *Controller) Policy(db vault.ReadOnlyKVStore, sessionKey, asset vault.Address) (*SpendingPolicy, error) {
	var policy SpendingPolicy
	switch err := c.bucket.One(db, PolicyKey(sessionKey, asset), &policy); {
	case err == nil:
		// Removal overwrites with a zeroed record instead of deleting.
		if !policy.Configured() {
			return nil, nil
		}
		return &policy, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, errors.Wrap(err, "policy")
	}
}

// Enforce charges the amount moved by a call against the session keys
// policy for the calls target asset and persists the updated accounting.
// Calls that move no value or hit an asset without a policy pass for free.
func (c *Controller) Enforce(db vault.KVStore, sessionKey vault.Address, call *vault.CallDescriptor, now vault.UnixTime) error {
	amount, tracked, err := callAmount(call)
	if err != nil {
		return err
	}
	if !tracked {
		return nil
	}

	policy, err := c.Policy(db, sessionKey, call.Target)
	if err != nil {
		return err
	}
	if policy == nil {
		return nil
	}

	if amount > policy.MaxPerCall {
		return errors.Wrapf(ErrPerCallLimit, "%d above per call maximum %d", amount, policy.MaxPerCall)
	}

	// The window starts with the first spend, not with the policy
	// creation. A fresh or freshly reset policy has no window yet.
	if policy.WindowStart == 0 && policy.SpentInWindow == 0 {
		policy.WindowStart = now
	}

	// Roll the window over lazily. Nothing updates policies on a timer,
	// an expired window is detected and reset on the next spend.
	if now > policy.WindowStart.Add(asSeconds(policy.WindowSeconds)) {
		policy.SpentInWindow = 0
		policy.WindowStart = now
	}

	// Written to avoid overflowing SpentInWindow+amount.
	if amount > policy.MaxPerWindow-policy.SpentInWindow {
		return errors.Wrapf(ErrWindowLimit, "%d left in window, %d requested",
			policy.MaxPerWindow-policy.SpentInWindow, amount)
	}

	policy.SpentInWindow += amount
	if _, err := c.bucket.Put(db, PolicyKey(sessionKey, call.Target), policy); err != nil {
		return errors.Wrap(err, "store policy")
	}
	return nil
}

// callAmount extracts the moved amount from a call payload. The second
// return is false when the selector is not tracked.
func callAmount(call *vault.CallDescriptor) (int64, bool, error) {
	offset, ok := spendingSelectors[call.Selector]
	if !ok {
		return 0, false, nil
	}
	if len(call.Payload) <= offset {
		return 0, false, errors.Wrapf(errors.ErrInput,
			"%s payload too short for amount at %d", call.Selector, offset)
	}
	raw := call.Payload[offset]
	if raw > maxAmount {
		return 0, false, errors.Wrapf(errors.ErrOverflow, "amount %d", raw)
	}
	return int64(raw), true, nil
}

// maxAmount is the largest payload word representable as an int64 amount.
const maxAmount = uint64(1<<63 - 1)

func asSeconds(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}
