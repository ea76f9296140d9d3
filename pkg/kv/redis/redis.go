// Package redis provides a Redis-backed key-value store for sharing cached
// registry responses between processes and machines.
//
// # Usage
//
//	store, err := redis.NewStore(ctx, redis.Config{
//	    Addr:   "localhost:6379",
//	    Prefix: "npmreg:",
//	    TTL:    24 * time.Hour,
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	c := cache.New(store)
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/matzehuels/npmreg/pkg/kv"
)

// Config configures a Redis store.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string `toml:"addr"`

	// Password for AUTH, if any.
	Password string `toml:"password"`

	// DB selects the logical database.
	DB int `toml:"db"`

	// Prefix is prepended to every key. Clear only removes keys with this
	// prefix and refuses to run without one.
	Prefix string `toml:"prefix"`

	// TTL is applied to every write. Zero means keys never expire.
	TTL time.Duration `toml:"ttl"`
}

// ErrNoPrefix is returned by Clear on a store without a key prefix.
var ErrNoPrefix = errors.New("redis: refusing to clear a store without a key prefix")

// Store is a kv.Store backed by Redis strings.
type Store struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
	owned  bool
}

// NewStore connects to Redis and verifies the connection with PING.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Store{client: client, prefix: cfg.Prefix, ttl: cfg.TTL, owned: true}, nil
}

// NewStoreFromClient wraps an existing client. The caller keeps ownership of
// the client; Close does not close it.
func NewStoreFromClient(client goredis.UniversalClient, prefix string, ttl time.Duration) *Store {
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

// Get retrieves the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores value under key with the configured TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Clear removes every key under the store's prefix using SCAN, so it does
// not block the server on large keyspaces. A store without a prefix would
// match the whole database, so Clear fails with ErrNoPrefix instead.
func (s *Store) Clear(ctx context.Context) (int, error) {
	if s.prefix == "" {
		return 0, ErrNoPrefix
	}
	count := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := s.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return count, err
		}
		count += int(n)
	}
	return count, iter.Err()
}

// Close closes the underlying client if the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

var (
	_ kv.Store   = (*Store)(nil)
	_ kv.Deleter = (*Store)(nil)
	_ kv.Clearer = (*Store)(nil)
)
