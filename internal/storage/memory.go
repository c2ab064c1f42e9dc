// ABOUTME: In-memory Store backed by sync.Map
// ABOUTME: Used for --store memory and as the default in tests

package storage

import (
	"context"
	"log/slog"
	"sync"
)

type MemoryStore struct {
	store sync.Map
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool) {
	val, ok := m.store.Load(key)
	if !ok {
		slog.Debug("Store miss", "store", "memory", "key", key)
		return "", false
	}
	return val.(string), true
}

func (m *MemoryStore) Set(_ context.Context, key, value string) {
	m.store.Store(key, value)
}

func (m *MemoryStore) Remove(_ context.Context, key string) {
	m.store.Delete(key)
}

func (m *MemoryStore) Clear(_ context.Context) {
	m.store.Range(func(key, _ interface{}) bool {
		m.store.Delete(key)
		return true
	})
}
