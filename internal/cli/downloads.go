package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/npmreg/pkg/integrations/npm"
)

// downloadsOpts holds the flags shared by the downloads commands.
type downloadsOpts struct {
	period string
	daily  bool
}

// downloadsCommand creates the "downloads" command and its subcommands.
func (c *CLI) downloadsCommand() *cobra.Command {
	opts := downloadsOpts{period: string(npm.LastWeek)}

	cmd := &cobra.Command{
		Use:   "downloads <name>",
		Short: "Fetch download counts",
		Long: `Fetch download counts for a package, several packages or the whole registry.

A period is last-day, last-week, last-month, last-year, a date (2024-01-31) or
an inclusive range (2024-01-01:2024-01-31). With --daily the counts are broken
down per day.

Examples:
  npmreg downloads react --period last-month
  npmreg downloads bulk npm react vue --daily
  npmreg downloads registry --period 2024-01-01:2024-01-31
  npmreg downloads versions @types/node`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, period := args[0], npm.DownloadPeriod(opts.period)
			return c.withClient(cmd.Context(), func(ctx context.Context, client *npm.Client) error {
				message := fmt.Sprintf("Fetching downloads of %s (%s)", name, period)
				return c.fetch(ctx, message, func(ctx context.Context) (any, error) {
					if opts.daily {
						return client.GetDailyPackageDownloads(ctx, name, period)
					}
					return client.GetPackageDownloads(ctx, name, period)
				})
			})
		},
	}

	opts.addFlags(cmd)

	cmd.AddCommand(c.downloadsBulkCommand(&opts))
	cmd.AddCommand(c.downloadsRegistryCommand(&opts))
	cmd.AddCommand(c.downloadsVersionsCommand())
	return cmd
}

// addFlags registers --period and --daily on cmd. They are local flags so
// "downloads versions", which has a fixed period, rejects them.
func (o *downloadsOpts) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.period, "period", "p", o.period, "download period")
	cmd.Flags().BoolVar(&o.daily, "daily", false, "break counts down per day")
	_ = cmd.RegisterFlagCompletionFunc("period", periodCompletions)
}

func (c *CLI) downloadsBulkCommand(opts *downloadsOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk <name> <name>...",
		Short: fmt.Sprintf("Fetch downloads of %d to %d unscoped packages at once", npm.MinBulkPackages, npm.MaxBulkPackages),
		Args:  cobra.RangeArgs(npm.MinBulkPackages, npm.MaxBulkPackages),
		RunE: func(cmd *cobra.Command, args []string) error {
			period := npm.DownloadPeriod(opts.period)
			return c.withClient(cmd.Context(), func(ctx context.Context, client *npm.Client) error {
				message := fmt.Sprintf("Fetching downloads of %d packages (%s)", len(args), period)
				return c.fetch(ctx, message, func(ctx context.Context) (any, error) {
					if opts.daily {
						return client.GetBulkDailyPackageDownloads(ctx, args, period)
					}
					return client.GetBulkPackageDownloads(ctx, args, period)
				})
			})
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func (c *CLI) downloadsRegistryCommand(opts *downloadsOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Fetch downloads of the whole registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period := npm.DownloadPeriod(opts.period)
			return c.withClient(cmd.Context(), func(ctx context.Context, client *npm.Client) error {
				return c.fetch(ctx, fmt.Sprintf("Fetching registry downloads (%s)", period), func(ctx context.Context) (any, error) {
					if opts.daily {
						return client.GetDailyRegistryDownloads(ctx, period)
					}
					return client.GetRegistryDownloads(ctx, period)
				})
			})
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func (c *CLI) downloadsVersionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "versions <name>",
		Short: "Fetch per-version downloads of the last seven days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return c.withClient(cmd.Context(), func(ctx context.Context, client *npm.Client) error {
				return c.fetch(ctx, "Fetching version downloads of "+name, func(ctx context.Context) (any, error) {
					return client.GetPackageVersionsDownloads(ctx, name)
				})
			})
		},
	}
}
