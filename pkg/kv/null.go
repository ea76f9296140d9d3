package kv

import "context"

// Null is a no-op store that never stores anything.
// Useful for testing or when caching should be disabled without
// removing the cache from the client configuration.
type Null struct{}

// NewNull creates a null store.
func NewNull() Store {
	return Null{}
}

// Get always returns a miss.
func (Null) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing.
func (Null) Set(context.Context, string, []byte) error {
	return nil
}

var _ Store = Null{}
