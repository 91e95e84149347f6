package store

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const fileMode = 0600

// BoltStore is a Store backed by bbolt. Each namespace maps to a
// bucket.
type BoltStore struct {
	mu     sync.Mutex
	db     *bolt.DB
	config Config
	staged batch
}

var _ Store = (*BoltStore)(nil)

// NewBolt opens (creating if needed) the bolt file at cfg.Path.
func NewBolt(cfg Config) (*BoltStore, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, errors.Wrap(ErrIO, err.Error())
		}
	}
	db, err := bolt.Open(cfg.Path, fileMode, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	if cfg.NumRetries == 0 {
		cfg.NumRetries = 1
	}
	return &BoltStore{db: db, config: cfg}, nil
}

// Get retrieves a committed record.
func (b *BoltStore) Get(namespace string, key []byte) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return errors.Wrapf(ErrNotExist, "bucket = %s doesn't exist", namespace)
		}
		v := bucket.Get(key)
		if v == nil {
			return errors.Wrapf(ErrNotExist, "key = %x doesn't exist", key)
		}
		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})
	if err == nil {
		return value, nil
	}
	if errors.Cause(err) == ErrNotExist {
		return nil, err
	}
	return nil, errors.Wrap(ErrIO, err.Error())
}

// Put stages a <key, value> record.
func (b *BoltStore) Put(namespace string, key, value []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.staged.put(namespace, key, value)
}

// Commit writes all staged records in a single bolt transaction. On
// failure the staged records are kept so the caller may retry.
func (b *BoltStore) Commit() (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.staged.writes) == 0 {
		return nil
	}
	for c := uint8(0); c < b.config.NumRetries; c++ {
		if err = b.db.Update(func(tx *bolt.Tx) error {
			for _, w := range b.staged.writes {
				bucket, err := tx.CreateBucketIfNotExists([]byte(w.namespace))
				if err != nil {
					return errors.Wrapf(err, "create bucket %s", w.namespace)
				}
				if err := bucket.Put(w.key, w.value); err != nil {
					return errors.Wrapf(err, "put %s/%x", w.namespace, w.key)
				}
			}
			return nil
		}); err == nil {
			break
		}
	}
	if err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	b.staged.clear()
	return nil
}

// Close closes the bolt file. Uncommitted writes are dropped.
func (b *BoltStore) Close() error {
	if err := b.db.Close(); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// Path returns the file backing the store.
func (b *BoltStore) Path() string {
	return b.config.Path
}
