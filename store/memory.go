package store

import (
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore is an in-memory Store with the same staging semantics
// as BoltStore. Useful for tests and throwaway nodes.
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string]map[string][]byte
	staged  batch
	commits int
}

var _ Store = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

func (m *MemoryStore) Get(namespace string, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ns, ok := m.data[namespace]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "namespace = %s doesn't exist", namespace)
	}
	v, ok := ns[string(key)]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "key = %x doesn't exist", key)
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Put(namespace string, key, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged.put(namespace, key, value)
}

func (m *MemoryStore) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.staged.writes {
		ns, ok := m.data[w.namespace]
		if !ok {
			ns = make(map[string][]byte)
			m.data[w.namespace] = ns
		}
		ns[string(w.key)] = w.value
	}
	m.staged.clear()
	m.commits++
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Commits returns how many times Commit has been called.
func (m *MemoryStore) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}
