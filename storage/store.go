// Package storage provides the key-value persistence layer for client session state.
package storage

import "errors"

var (
	// ErrNotFound is returned when a key has no stored value.
	ErrNotFound = errors.New("not found")
	// ErrSealed is returned when a sealed value cannot be opened with the configured key.
	ErrSealed = errors.New("sealed value could not be opened")
)

// BatchTx provides Put and Delete within an atomic transaction.
type BatchTx interface {
	Put(key, value string) error
	Delete(key string) error
}

// Store is a string-valued key-value store that survives process restarts
// (for persistent implementations). Deleting a missing key is not an error.
type Store interface {
	Get(key string) (string, error)
	Put(key, value string) error
	Delete(keys ...string) error
	// Batch executes fn atomically. On error, none of the writes are applied.
	Batch(fn func(tx BatchTx) error) error
}
