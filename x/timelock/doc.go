/*
Package timelock implements the deferred call scheduler.

A scheduler records a call together with an absolute unlock timestamp.
Until that time the entry can be cancelled or extended. Once the clock
reaches the unlock time anyone can trigger the execution, the gate is
time, not identity. No two active entries may share the same
(target, selector, unlock time) triple.
*/
package timelock
