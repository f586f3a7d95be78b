package store

import (
	"github.com/iov-one/vault"
)

// Type aliases for all storage types, so code in this package and its
// consumers can use the short names.

type ReadOnlyKVStore = vault.ReadOnlyKVStore
type KVStore = vault.KVStore
type Iterator = vault.Iterator
type CacheableKVStore = vault.CacheableKVStore
type KVCacheWrap = vault.KVCacheWrap

// SetDeleter is a minimal interface for writing
type SetDeleter interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}

// Batch can write multiple ops atomically to an underlying store
type Batch interface {
	SetDeleter
	Write() error
}

// Model groups together key and value to return
type Model struct {
	Key   []byte
	Value []byte
}
