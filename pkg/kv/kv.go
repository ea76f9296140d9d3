// Package kv defines the key-value store abstraction used by the response
// cache, along with in-process backends.
//
// # Overview
//
// A [Store] maps string keys to opaque byte values. The cache layer stores
// schema-validated JSON documents in it and never interprets the bytes
// itself. Lifecycle concerns (expiry, eviction, size bounds) belong to the
// backend:
//
//   - [Memory]: concurrent in-process map, no expiry
//   - [File]: one file per key under a directory, optional TTL
//   - [Null]: never stores anything
//   - [Prefixed]: namespaces another store
//
// Networked backends live in subpackages:
//
//   - [redis]: Redis via go-redis, optional expiration
//   - [mongo]: MongoDB collection, optional TTL index
//
// # Contract
//
// Get returns (value, true, nil) on a hit and (nil, false, nil) on a miss.
// Errors are reserved for backend failures. Implementations must be safe for
// concurrent use.
//
// [redis]: github.com/matzehuels/npmreg/pkg/kv/redis
// [mongo]: github.com/matzehuels/npmreg/pkg/kv/mongo
package kv

import "context"

// Store is a pluggable get/set key-value store.
type Store interface {
	// Get retrieves the value stored under key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

// Deleter is implemented by stores that can remove single keys.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Clearer is implemented by stores that can drop every entry they own.
// It returns the number of entries removed, or -1 if the backend cannot tell.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Close releases backend resources if the store holds any.
// Stores that do not implement io.Closer are left untouched.
func Close(s Store) error {
	if c, ok := s.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
