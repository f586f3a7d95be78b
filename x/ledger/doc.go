/*
Package ledger implements the threshold multi-signature transaction engine.

Any configured signer can submit a call proposal. Other signers confirm it
and, once the number of distinct confirmations reaches the configured
threshold, the call can be executed exactly once. A proposal that was
executed or cancelled is final and rejects any further confirmation or
execution.
*/
package ledger
