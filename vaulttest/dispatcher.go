package vaulttest

import "github.com/iov-one/vault"

// Dispatcher is a mock implementation of the vault.Dispatcher interface. It
// records every dispatched call and allows failing selected calls.
type Dispatcher struct {
	// Calls holds copies of all dispatched calls in order.
	Calls []*vault.CallDescriptor

	// Err if set is returned by every Dispatch call.
	Err error

	// FailSelector if set fails only calls with this selector.
	FailSelector string
	// FailSelectorErr is returned for a failed selector match.
	FailSelectorErr error
}

var _ vault.Dispatcher = (*Dispatcher)(nil)

func (d *Dispatcher) Dispatch(db vault.KVStore, call *vault.CallDescriptor) error {
	d.Calls = append(d.Calls, call.Copy())
	if d.Err != nil {
		return d.Err
	}
	if d.FailSelector != "" && call.Selector == d.FailSelector {
		return d.FailSelectorErr
	}
	return nil
}

// DispatchCount returns the number of recorded dispatches.
func (d *Dispatcher) DispatchCount() int {
	return len(d.Calls)
}
