package kv

import "context"

// Prefixed wraps a Store and prepends a prefix to every key.
// It creates a scoped view of a shared backend, which is useful when several
// clients (for example, one per registry) share one Redis or one directory.
//
//	shared := kv.NewMemory()
//	public := kv.WithPrefix(shared, "npmjs:")
//	mirror := kv.WithPrefix(shared, "mirror:")
//
// Prefixes compose: WithPrefix(WithPrefix(s, "a:"), "b:") stores under "a:b:".
type Prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix returns a Store that prefixes all keys with prefix.
// If inner is already a Prefixed store, the prefixes are merged.
func WithPrefix(inner Store, prefix string) Store {
	if p, ok := inner.(*Prefixed); ok {
		return &Prefixed{inner: p.inner, prefix: p.prefix + prefix}
	}
	return &Prefixed{inner: inner, prefix: prefix}
}

// Prefix returns the full key prefix.
func (p *Prefixed) Prefix() string { return p.prefix }

// Get retrieves prefix+key from the inner store.
func (p *Prefixed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

// Set stores value under prefix+key in the inner store.
func (p *Prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

// Delete removes prefix+key if the inner store supports deletion.
func (p *Prefixed) Delete(ctx context.Context, key string) error {
	if d, ok := p.inner.(Deleter); ok {
		return d.Delete(ctx, p.prefix+key)
	}
	return nil
}

var (
	_ Store   = (*Prefixed)(nil)
	_ Deleter = (*Prefixed)(nil)
)
