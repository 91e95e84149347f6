// Package store provides the durable key-value byte store that holds
// committed ledger state.
//
// Writes are staged with Put and become durable, all or nothing, on
// Commit. Get only observes committed data.
package store

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotExist indicates a missing namespace or key.
	ErrNotExist = errors.New("not exist in DB")
	// ErrIO indicates an I/O failure in the underlying engine.
	ErrIO = errors.New("DB I/O operation error")
)

// Store is the durable state store.
type Store interface {
	// Get returns the committed value of key in namespace, or an
	// error wrapping ErrNotExist.
	Get(namespace string, key []byte) ([]byte, error)
	// Put stages a write. It is not visible until Commit.
	Put(namespace string, key, value []byte)
	// Commit flushes all staged writes atomically.
	Commit() error
	// Close releases the store.
	Close() error
}

// Config is the config for the store.
type Config struct {
	Path string `yaml:"path"`
	// NumRetries is the number of attempts for a failed commit.
	NumRetries uint8 `yaml:"numRetries"`
}

// DefaultConfig returns the default config.
var DefaultConfig = Config{
	Path:       "./.ledger/store.db",
	NumRetries: 3,
}

type write struct {
	namespace string
	key       []byte
	value     []byte
}

// batch holds staged writes in insertion order.
type batch struct {
	writes []write
}

func (b *batch) put(namespace string, key, value []byte) {
	b.writes = append(b.writes, write{
		namespace: namespace,
		key:       append([]byte(nil), key...),
		value:     append([]byte(nil), value...),
	})
}

func (b *batch) clear() {
	b.writes = b.writes[:0]
}
