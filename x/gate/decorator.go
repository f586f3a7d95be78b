package gate

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// exempt paths stay reachable while paused, otherwise a paused gate could
// never be unpaused again.
var exempt = map[string]bool{
	pathSetPaused:           true,
	pathUpdateConfiguration: true,
}

// Decorator rejects every message while the gate is paused, except the gate
// management messages themselves. A missing gate configuration means the
// gate was never set up and everything passes.
type Decorator struct{}

var _ vault.Decorator = Decorator{}

func NewDecorator() Decorator {
	return Decorator{}
}

func (d Decorator) Check(ctx vault.Context, store vault.KVStore, tx vault.Tx, next vault.Checker) (*vault.CheckResult, error) {
	if err := d.allowed(store, tx); err != nil {
		return nil, err
	}
	return next.Check(ctx, store, tx)
}

func (d Decorator) Deliver(ctx vault.Context, store vault.KVStore, tx vault.Tx, next vault.Deliverer) (*vault.DeliverResult, error) {
	if err := d.allowed(store, tx); err != nil {
		return nil, err
	}
	return next.Deliver(ctx, store, tx)
}

func (d Decorator) allowed(store vault.KVStore, tx vault.Tx) error {
	conf, err := loadConf(store)
	switch {
	case err == nil:
		// Continue below.
	case errors.ErrNotFound.Is(err):
		return nil
	default:
		return err
	}
	if !conf.Paused {
		return nil
	}

	if exempt[vault.GetPath(tx)] {
		return nil
	}
	return errors.Wrap(errors.ErrState, "gate is paused")
}
