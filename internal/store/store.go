package store

import (
	"context"
	"sync"
)

// Store is the durable key-value capability the pipeline persists identity
// and checkout state into. Browser deployments back this with localStorage;
// here it is injected so the pipeline runs and tests headlessly.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is the in-process implementation. Reads and writes are
// individually guarded, but get-then-set sequences on top of it are not
// atomic; concurrent writers race the same way two browser tabs do, and the
// last write wins.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

type namespaced struct {
	inner Store
	scope string
}

// Namespaced prefixes every key with a visitor scope so one shared backend
// can hold state for many browsers.
func Namespaced(s Store, scope string) Store {
	return &namespaced{inner: s, scope: scope}
}

func (n *namespaced) key(key string) string { return n.scope + ":" + key }

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.inner.Get(ctx, n.key(key))
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.inner.Set(ctx, n.key(key), value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.key(key))
}
