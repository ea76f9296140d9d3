// Package cache pairs a request serializer with a key-value store to form
// the read-through cache used by registry clients.
//
// # Overview
//
// A [Cache] is a configuration record, not a service: it holds
//
//   - Serialize: a pure function mapping a [Request] (URL + headers) to a
//     storage key
//   - Storage: any [kv.Store] holding schema-validated response documents
//
// The client consults the cache before every request and fills it after
// every successful, validated response. Expiry, eviction and size bounds are
// properties of the chosen store.
//
// # Keys
//
// [DefaultSerializer] canonicalizes the request (header names in canonical
// MIME form, map keys sorted) and digests it with SHA-256, so logically equal
// requests share a key regardless of header insertion order or case.
//
// A custom serializer must be deterministic. A serializer that depends on
// iteration order or time does not corrupt results; it only causes misses.
//
// # Usage
//
//	c := cache.New(kv.NewMemory())
//	client := npm.NewClient(npm.WithCache(c))
//
//	// Share one Redis between two registries
//	store, _ := redis.NewStore(ctx, redis.Config{Addr: "localhost:6379"})
//	public := cache.New(store, cache.WithNamespace("npmjs"))
//	mirror := cache.New(store, cache.WithNamespace("mirror"))
package cache

import (
	"encoding/json"
	"maps"
	"net/http"
	"slices"

	"github.com/opencontainers/go-digest"

	"github.com/matzehuels/npmreg/pkg/kv"
)

// KeyPrefix starts every key produced by DefaultSerializer.
const KeyPrefix = "npmreg:"

// Request describes one registry GET for key derivation.
type Request struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Serializer maps a request to a storage key.
type Serializer func(Request) string

// Cache is a read-through cache configuration.
type Cache struct {
	// Serialize derives the storage key for a request.
	Serialize Serializer

	// Storage persists validated responses.
	Storage kv.Store
}

// Option configures a Cache created by New.
type Option func(*Cache)

// WithSerializer replaces the default serializer.
func WithSerializer(s Serializer) Option {
	return func(c *Cache) {
		if s != nil {
			c.Serialize = s
		}
	}
}

// WithNamespace scopes keys under namespace, so several caches can share one
// store without colliding. Namespaces applied in sequence nest.
func WithNamespace(namespace string) Option {
	return func(c *Cache) {
		c.Serialize = Namespaced(c.Serialize, namespace)
	}
}

// New creates a Cache over storage using DefaultSerializer.
// A nil storage falls back to an in-memory store.
func New(storage kv.Store, opts ...Option) *Cache {
	if storage == nil {
		storage = kv.NewMemory()
	}
	c := &Cache{Serialize: DefaultSerializer, Storage: storage}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key derives the storage key for url and headers.
func (c *Cache) Key(url string, headers map[string]string) string {
	return c.Serialize(Request{URL: url, Headers: headers})
}

// DefaultSerializer returns KeyPrefix followed by the hex SHA-256 digest of
// the canonical JSON form of r.
func DefaultSerializer(r Request) string {
	return KeyPrefix + digest.FromBytes(Canonical(r)).Encoded()
}

// Canonical returns the canonical JSON encoding of r: header names are
// converted to canonical MIME form and object keys are sorted. Empty and nil
// header maps encode identically. When names differ only in case, the value
// of the name sorting last byte-wise wins ("accept" over "Accept").
func Canonical(r Request) []byte {
	c := Request{URL: r.URL}
	if len(r.Headers) > 0 {
		c.Headers = make(map[string]string, len(r.Headers))
		for _, k := range slices.Sorted(maps.Keys(r.Headers)) {
			c.Headers[http.CanonicalHeaderKey(k)] = r.Headers[k]
		}
	}
	// encoding/json sorts map keys and cannot fail for string maps.
	data, _ := json.Marshal(c)
	return data
}

// Namespaced wraps inner so every key is prefixed with namespace and a colon.
// A nil inner uses DefaultSerializer.
func Namespaced(inner Serializer, namespace string) Serializer {
	if inner == nil {
		inner = DefaultSerializer
	}
	if namespace == "" {
		return inner
	}
	return func(r Request) string {
		return namespace + ":" + inner(r)
	}
}
