/*
Package vault defines the common interfaces that tie together the
authorization engines of a custodial vault: a threshold multi-signature
transaction ledger, a time-lock scheduler and a session-key spending
policy engine.

All engines are deterministic state machines. Every operation is a Msg
processed by a Handler against a KVStore, with the current time and the
caller identity carried in the Context. Engines never talk to each other
directly; they share the Dispatcher primitive to perform the call they
guard, and the orm/store packages to persist their records.

The package itself contains only the simplest implementations (addresses,
time, call descriptors, results); everything stateful lives in the
subpackages.
*/
package vault
