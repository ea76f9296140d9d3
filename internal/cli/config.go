package cli

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/npmreg/pkg/errors"
	"github.com/matzehuels/npmreg/pkg/integrations/npm"
	"github.com/matzehuels/npmreg/pkg/kv/mongo"
	"github.com/matzehuels/npmreg/pkg/kv/redis"
)

// Cache backends selectable in the config file or with --cache.
const (
	backendNone   = "none"
	backendMemory = "memory"
	backendFile   = "file"
	backendRedis  = "redis"
	backendMongo  = "mongo"
)

var backends = []string{backendNone, backendMemory, backendFile, backendRedis, backendMongo}

// defaultCacheTTL bounds how long the file cache trusts a response.
const defaultCacheTTL = 24 * time.Hour

// Config is the npmreg config file.
//
//	registry_url = "https://registry.npmjs.org"
//
//	[cache]
//	backend = "redis"
//	ttl = "6h"
//
//	[cache.redis]
//	addr = "localhost:6379"
//	prefix = "npmreg:"
type Config struct {
	RegistryURL  string      `toml:"registry_url"`
	DownloadsURL string      `toml:"downloads_url"`
	UserAgent    string      `toml:"user_agent"`
	Cache        CacheConfig `toml:"cache"`
}

// CacheConfig selects and configures the response cache store.
type CacheConfig struct {
	Backend string `toml:"backend"`

	// Namespace scopes keys so several registries can share one store.
	Namespace string `toml:"namespace"`

	// TTL applies to the file store, and to redis and mongo unless their
	// own sections set one.
	TTL time.Duration `toml:"ttl"`

	// Dir is the file store directory. Empty means the XDG cache directory.
	Dir string `toml:"dir"`

	Redis redis.Config `toml:"redis"`
	Mongo mongo.Config `toml:"mongo"`
}

func defaultConfig() Config {
	return Config{
		RegistryURL:  npm.DefaultRegistryURL,
		DownloadsURL: npm.DefaultDownloadsURL,
		Cache: CacheConfig{
			Backend: backendFile,
			TTL:     defaultCacheTTL,
		},
	}
}

// loadConfig reads the config file at path over the defaults. An empty path
// means the default location, which may be absent; an explicit path must
// exist.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && stderrors.Is(err, fs.ErrNotExist) {
			return defaultConfig(), nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// override applies non-empty flags.
func (cfg *Config) override(f globalFlags) {
	if f.cache != "" {
		cfg.Cache.Backend = f.cache
	}
	if f.registry != "" {
		cfg.RegistryURL = f.registry
	}
	if f.downloads != "" {
		cfg.DownloadsURL = f.downloads
	}
}

func (cfg Config) validate() error {
	if !slices.Contains(backends, cfg.Cache.Backend) {
		return errors.New(errors.ErrCodeConfig, "unknown cache backend %q: want one of %s", cfg.Cache.Backend, strings.Join(backends, ", "))
	}
	if cfg.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeConfig, "cache ttl must not be negative")
	}
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// configPath returns the default config file using XDG conventions
// (~/.config/npmreg/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// cacheDir returns the cache directory using XDG conventions (~/.cache/npmreg/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
