package gate

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/gconf"
	"github.com/iov-one/vault/x"
)

const setPausedCost int64 = 1

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r vault.Registry, auth x.Authenticator) {
	r.Handle(pathSetPaused, SetPausedHandler{auth: auth})
	r.Handle(pathUpdateConfiguration,
		gconf.NewUpdateConfigurationHandler("gate", &Configuration{}, auth, nil))
}

// SetPausedHandler flips the pause switch. Only the configuration owner is
// allowed to do that.
type SetPausedHandler struct {
	auth x.Authenticator
}

var _ vault.Handler = SetPausedHandler{}

func (h SetPausedHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: setPausedCost}, nil
}

func (h SetPausedHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	conf.Paused = msg.Paused
	if err := gconf.Save(db, "gate", conf); err != nil {
		return nil, errors.Wrap(err, "save configuration")
	}

	return &vault.DeliverResult{
		Tags: []vault.KVPair{vault.Pair(pathSetPaused, nil)},
	}, nil
}

func (h SetPausedHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*SetPausedMsg, *Configuration, error) {
	var msg SetPausedMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, conf.Owner) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "owner signature required")
	}
	return &msg, conf, nil
}
