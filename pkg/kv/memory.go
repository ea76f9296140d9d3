package kv

import (
	"context"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
)

// Memory is an in-process Store backed by a concurrent map.
// Entries live until the Memory is garbage collected or cleared.
type Memory struct {
	entries *xsync.MapOf[string, []byte]
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: xsync.NewMapOf[string, []byte]()}
}

// Get retrieves a copy of the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.entries.Load(key)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

// Set stores a copy of value under key.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.entries.Store(key, slices.Clone(value))
	return nil
}

// Delete removes key. Missing keys are not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.entries.Delete(key)
	return nil
}

// Clear removes every entry.
func (m *Memory) Clear(context.Context) (int, error) {
	n := m.entries.Size()
	m.entries.Clear()
	return n, nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int { return m.entries.Size() }

var (
	_ Store   = (*Memory)(nil)
	_ Deleter = (*Memory)(nil)
	_ Clearer = (*Memory)(nil)
)
