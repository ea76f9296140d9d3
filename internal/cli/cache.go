package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/npmreg/pkg/errors"
	"github.com/matzehuels/npmreg/pkg/kv"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response from the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cfg.Cache)
			if err != nil {
				return err
			}
			if store == nil {
				printInfo("Caching is disabled")
				return nil
			}
			defer kv.Close(store)

			clearer, ok := store.(kv.Clearer)
			if !ok {
				return errors.New(errors.ErrCodeCache, "the %s backend cannot be cleared", cfg.Cache.Backend)
			}
			n, err := clearer.Clear(cmd.Context())
			if err != nil {
				return errors.Wrap(errors.ErrCodeCache, err, "clear %s cache", cfg.Cache.Backend)
			}

			if n == 0 {
				printInfo("Cache is empty")
			} else {
				printSuccess("Cleared %d cached entries", n)
			}
			printKeyValue("Backend", cfg.Cache.Backend)
			if cfg.Cache.Backend == backendFile {
				dir, _ := fileCacheDir(cfg.Cache)
				printDetail("Directory: %s", dir)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cfg.Cache.Backend != backendFile {
				printWarning("Cache backend is %s, not file", cfg.Cache.Backend)
			}
			dir, err := fileCacheDir(cfg.Cache)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, dir)
			return nil
		},
	}
}
