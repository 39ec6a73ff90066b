// Package drivertest provides in-memory driver implementations for tests.
package drivertest

import (
	"context"
	"sync"
	"time"

	"github.com/pot-code/learn-gateway/internal/infrastructure/driver"
)

type entry struct {
	value    string
	deadline time.Time
}

// MemoryKV in-memory driver.KeyValueDB, expirations follow wall clock time
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]entry
	// Err when set is returned by every operation
	Err error
}

var _ driver.KeyValueDB = &MemoryKV{}

// NewMemoryKV .
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]entry)}
}

// SetEX implement KeyValueDB, expiration <= 0 keeps the key forever
func (m *MemoryKV) SetEX(ctx context.Context, key string, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	e := entry{value: value}
	if expiration > 0 {
		e.deadline = time.Now().Add(expiration)
	}
	m.data[key] = e
	return nil
}

// Get implement KeyValueDB
func (m *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	e, ok := m.lookup(key)
	if !ok {
		return "", driver.ErrKeyNotFound
	}
	return e.value, nil
}

// Exists implement KeyValueDB
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	_, ok := m.lookup(key)
	return ok, nil
}

// Del implement KeyValueDB
func (m *MemoryKV) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Ping implement KeyValueDB
func (m *MemoryKV) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

// Close implement KeyValueDB
func (m *MemoryKV) Close() error {
	return nil
}

// Keys returns the live keys
func (m *MemoryKV) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if _, ok := m.lookup(k); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func (m *MemoryKV) lookup(key string) (entry, bool) {
	e, ok := m.data[key]
	if !ok {
		return entry{}, false
	}
	if !e.deadline.IsZero() && time.Now().After(e.deadline) {
		delete(m.data, key)
		return entry{}, false
	}
	return e, true
}
