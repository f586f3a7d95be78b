package spending

import (
	"github.com/iov-one/vault/errors"
)

var (
	// ErrPerCallLimit is returned when a single call amount exceeds the
	// configured per call maximum.
	ErrPerCallLimit = errors.Register(1220, "per call limit exceeded")

	// ErrWindowLimit is returned when a call would push the cumulative
	// window spend over the configured maximum.
	ErrWindowLimit = errors.Register(1221, "window limit exceeded")
)
