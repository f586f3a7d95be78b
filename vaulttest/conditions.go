package vaulttest

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/iov-one/vault"
)

var condCounter uint64

// NewCondition returns a new unique condition. Conditions created by this
// function are not backed by any key material, they only provide unique
// addresses for tests.
func NewCondition() vault.Condition {
	n := atomic.AddUint64(&condCounter, 1)
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, n)
	return vault.NewCondition("test", "cond", data)
}
