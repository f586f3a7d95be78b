/*
Package gate implements an emergency stop for the whole authorization core.

While the gate is paused every transaction is rejected before reaching its
handler. The only exception is the gate configuration update itself, so the
owner can always unpause again.
*/
package gate
