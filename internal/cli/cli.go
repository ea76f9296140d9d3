// Package cli implements the npmreg command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/matzehuels/npmreg/pkg/buildinfo"
	"github.com/matzehuels/npmreg/pkg/cache"
	"github.com/matzehuels/npmreg/pkg/integrations/npm"
	"github.com/matzehuels/npmreg/pkg/kv"
	"github.com/matzehuels/npmreg/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "npmreg"

	// manifestConcurrency bounds parallel manifest fetches.
	manifestConcurrency = 8
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out   io.Writer
	flags globalFlags
}

// globalFlags are the persistent flags that override the config file.
type globalFlags struct {
	config    string
	cache     string
	registry  string
	downloads string
}

// New creates a new CLI instance with a default logger. JSON results are
// written to stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command results.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "npmreg queries the npm registry's read-only API",
		Long:         `npmreg fetches packuments, manifests, download counts, search results and registry metadata, validating every response and caching it in the configured store.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return installTelemetry()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.flags.config, "config", "", "config file (default $XDG_CONFIG_HOME/npmreg/config.toml)")
	flags.StringVar(&c.flags.cache, "cache", "", "cache backend: none, memory, file, redis or mongo")
	flags.StringVar(&c.flags.registry, "registry", "", "registry API base URL")
	flags.StringVar(&c.flags.downloads, "downloads", "", "downloads API base URL")
	_ = root.RegisterFlagCompletionFunc("cache", completeFixed(backends...))

	root.AddCommand(c.packumentCommand())
	root.AddCommand(c.manifestCommand())
	root.AddCommand(c.downloadsCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.keysCommand())
	root.AddCommand(c.metadataCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// installTelemetry routes client hooks to the global OpenTelemetry providers.
// Until an exporter registers real providers those are no-ops.
func installTelemetry() error {
	o, err := observability.NewOTel(otel.GetTracerProvider(), otel.GetMeterProvider())
	if err != nil {
		return err
	}
	observability.Install(o)
	return nil
}

// =============================================================================
// Client Factory
// =============================================================================

// config loads the config file and applies flag overrides.
func (c *CLI) config() (Config, error) {
	cfg, err := loadConfig(c.flags.config)
	if err != nil {
		return Config{}, err
	}
	cfg.override(c.flags)
	return cfg, cfg.validate()
}

// withClient builds a client from the effective configuration, runs fn and
// releases the cache store afterwards.
func (c *CLI) withClient(ctx context.Context, fn func(context.Context, *npm.Client) error) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			if err := kv.Close(store); err != nil {
				c.Logger.Warn("close cache store", "backend", cfg.Cache.Backend, "err", err)
			}
		}()
	}

	opts := []npm.Option{
		npm.WithRegistryURL(cfg.RegistryURL),
		npm.WithDownloadsURL(cfg.DownloadsURL),
		npm.WithLogger(c.Logger),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, npm.WithUserAgent(cfg.UserAgent))
	}
	if store != nil {
		opts = append(opts, npm.WithCache(cache.New(store, cache.WithNamespace(cfg.Cache.Namespace))))
	}

	client, err := npm.NewClient(opts...)
	if err != nil {
		return err
	}
	c.Logger.Debug("client ready", "registry", cfg.RegistryURL, "downloads", cfg.DownloadsURL, "cache", cfg.Cache.Backend)
	return fn(ctx, client)
}

// fetch runs one request behind a spinner and prints the result as JSON.
func (c *CLI) fetch(ctx context.Context, message string, fn func(context.Context) (any, error)) error {
	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, message)
	spinner.Start()

	v, err := fn(ctx)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done(message)
	return c.writeJSON(v)
}

// writeJSON prints v as indented JSON.
func (c *CLI) writeJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
