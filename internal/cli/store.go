package cli

import (
	"context"

	"github.com/matzehuels/npmreg/pkg/errors"
	"github.com/matzehuels/npmreg/pkg/kv"
	"github.com/matzehuels/npmreg/pkg/kv/mongo"
	"github.com/matzehuels/npmreg/pkg/kv/redis"
)

// Local defaults for the networked backends.
const (
	defaultRedisAddr = "localhost:6379"
	defaultMongoURI  = "mongodb://localhost:27017"
)

// openStore opens the configured cache store. It returns nil for the none
// backend.
func openStore(ctx context.Context, cfg CacheConfig) (kv.Store, error) {
	switch cfg.Backend {
	case backendNone:
		return nil, nil
	case backendMemory:
		return kv.NewMemory(), nil
	case backendFile:
		dir, err := fileCacheDir(cfg)
		if err != nil {
			return nil, err
		}
		store, err := kv.NewFile(dir, cfg.TTL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCache, err, "open file cache %s", dir)
		}
		return store, nil
	case backendRedis:
		store, err := redis.NewStore(ctx, redisConfig(cfg))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCache, err, "open redis cache")
		}
		return store, nil
	case backendMongo:
		store, err := mongo.NewStore(ctx, mongoConfig(cfg))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCache, err, "open mongo cache")
		}
		return store, nil
	}
	return nil, errors.New(errors.ErrCodeConfig, "unknown cache backend %q", cfg.Backend)
}

// redisConfig fills the local defaults into the redis section. Keys are
// namespaced under "npmreg:" unless a prefix is configured, so clearing the
// cache never touches foreign keys.
func redisConfig(cfg CacheConfig) redis.Config {
	rc := cfg.Redis
	if rc.Addr == "" {
		rc.Addr = defaultRedisAddr
	}
	if rc.Prefix == "" {
		rc.Prefix = appName + ":"
	}
	if rc.TTL == 0 {
		rc.TTL = cfg.TTL
	}
	return rc
}

// mongoConfig fills the local defaults into the mongo section.
func mongoConfig(cfg CacheConfig) mongo.Config {
	mc := cfg.Mongo
	if mc.URI == "" {
		mc.URI = defaultMongoURI
	}
	if mc.TTL == 0 {
		mc.TTL = cfg.TTL
	}
	return mc
}

// fileCacheDir returns the configured file cache directory or the XDG one.
func fileCacheDir(cfg CacheConfig) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfig, err, "locate cache directory")
	}
	return dir, nil
}
