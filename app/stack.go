package app

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/x"
	"github.com/iov-one/vault/x/gate"
	"github.com/iov-one/vault/x/ledger"
	"github.com/iov-one/vault/x/spending"
	"github.com/iov-one/vault/x/timelock"
	"github.com/iov-one/vault/x/utils"
)

// NewStack assembles the full authorization core: all three engines plus the
// gate behind the production decorator chain. The returned handler is the
// single entry point of the vault.
//
// The savepoint decorator makes every delivered message one atomic unit. A
// handler error discards all of its writes, including any dispatches already
// performed through the cache.
func NewStack(auth x.Authenticator, disp vault.Dispatcher) vault.Handler {
	r := NewRouter()
	ledger.RegisterRoutes(r, auth, disp)
	timelock.RegisterRoutes(r, auth, disp)
	spending.RegisterRoutes(r, auth, disp)
	gate.RegisterRoutes(r, auth)

	return ChainDecorators(
		utils.NewRecovery(),
		utils.NewLogging(),
		utils.NewActionTagger(),
		gate.NewDecorator(),
		utils.NewSavepoint().OnCheck().OnDeliver(),
	).WithHandler(r)
}
