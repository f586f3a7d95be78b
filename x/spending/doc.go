/*
Package spending implements the session key spending policy engine.

The owner grants a session key a capped spending allowance per asset. The
allowance has a per call cap and a rolling window cap. Enforcement happens
at the moment a batch is about to dispatch, never at proposal time, so that
a batch failing for unrelated reasons can never corrupt the accounting.
*/
package spending
