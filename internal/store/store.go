// Package store is the key-value persistence boundary for the course list
// and the display settings. Values are opaque bytes; callers encode them.
package store

import (
	"context"
	"errors"
	"sync"

	appLog "coursegrid/internal/log"
)

// Well-known keys.
const (
	KeyCourses  = "courses"
	KeySettings = "settings"
)

// Store is a minimal get/set key-value store.
type Store interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

var ErrInvalidKey = errors.New("store: invalid key")

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Fallback reads and writes through primary and switches to secondary
// whenever primary returns an error (e.g. Redis is unreachable).
type Fallback struct {
	primary   Store
	secondary Store
}

// NewFallback wraps primary with secondary. A nil primary means secondary
// is used directly.
func NewFallback(primary, secondary Store) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.primary != nil {
		v, ok, err := f.primary.Get(ctx, key)
		if err == nil {
			return v, ok, nil
		}
		appLog.Error("store: primary get failed, using fallback", err, "key", key)
	}
	return f.secondary.Get(ctx, key)
}

func (f *Fallback) Set(ctx context.Context, key string, value []byte) error {
	if f.primary != nil {
		err := f.primary.Set(ctx, key, value)
		if err == nil {
			return nil
		}
		appLog.Error("store: primary set failed, using fallback", err, "key", key)
	}
	return f.secondary.Set(ctx, key, value)
}
