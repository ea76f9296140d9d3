package npm

import (
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/npmreg/pkg/buildinfo"
	"github.com/matzehuels/npmreg/pkg/cache"
	"github.com/matzehuels/npmreg/pkg/errors"
	"github.com/matzehuels/npmreg/pkg/integrations"
)

// Well-known public endpoints used when no base URL is configured.
const (
	DefaultRegistryURL  = "https://registry.npmjs.org"
	DefaultDownloadsURL = "https://api.npmjs.org"
)

// Client is a typed client for the read-only registry API.
// Its configuration is fixed at construction, so a Client is safe for
// concurrent use. Concurrent calls for the same resource may both miss the
// cache and both write it; the last write wins.
type Client struct {
	transport    integrations.Getter
	cache        *cache.Cache
	registryURL  string
	downloadsURL string
	logger       *log.Logger
}

type config struct {
	cache        *cache.Cache
	registryURL  string
	downloadsURL string
	httpClient   *http.Client
	transport    integrations.Getter
	logger       *log.Logger
	userAgent    string
}

// Option configures a Client.
type Option func(*config)

// WithCache enables the read-through cache. The cache is shared, not owned:
// closing its storage is the caller's job.
func WithCache(c *cache.Cache) Option {
	return func(cfg *config) { cfg.cache = c }
}

// WithRegistryURL overrides the metadata API root.
func WithRegistryURL(u string) Option {
	return func(cfg *config) { cfg.registryURL = u }
}

// WithDownloadsURL overrides the downloads API root.
func WithDownloadsURL(u string) Option {
	return func(cfg *config) { cfg.downloadsURL = u }
}

// WithHTTPClient sets the HTTP client used by the default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *config) { cfg.httpClient = hc }
}

// WithTransport replaces the HTTP transport entirely. WithHTTPClient and
// WithUserAgent have no effect when a transport is given.
func WithTransport(t integrations.Getter) Option {
	return func(cfg *config) { cfg.transport = t }
}

// WithLogger sets the logger for debug output. By default nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// WithUserAgent sets the User-Agent header of the default transport.
func WithUserAgent(ua string) Option {
	return func(cfg *config) { cfg.userAgent = ua }
}

// NewClient creates a Client. Without options it talks to the public
// registry and caches nothing.
func NewClient(opts ...Option) (*Client, error) {
	cfg := config{
		registryURL:  DefaultRegistryURL,
		downloadsURL: DefaultDownloadsURL,
		userAgent:    buildinfo.UserAgent(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := errors.ValidateURL(cfg.registryURL); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "registry URL")
	}
	if err := errors.ValidateURL(cfg.downloadsURL); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "downloads URL")
	}

	transport := cfg.transport
	if transport == nil {
		transport = integrations.NewClient(cfg.httpClient, map[string]string{
			"Accept":     "application/json",
			"User-Agent": cfg.userAgent,
		})
	}
	logger := cfg.logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Client{
		transport:    transport,
		cache:        cfg.cache,
		registryURL:  cfg.registryURL,
		downloadsURL: cfg.downloadsURL,
		logger:       logger,
	}, nil
}

// Cache returns the configured cache, or nil.
func (c *Client) Cache() *cache.Cache { return c.cache }

// RegistryURL returns the metadata API root.
func (c *Client) RegistryURL() string { return c.registryURL }

// DownloadsURL returns the downloads API root.
func (c *Client) DownloadsURL() string { return c.downloadsURL }
