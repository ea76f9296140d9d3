package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/npmreg/pkg/integrations/npm"
)

// packumentCommand creates the "packument" command.
func (c *CLI) packumentCommand() *cobra.Command {
	var abbreviated bool

	cmd := &cobra.Command{
		Use:   "packument <name>",
		Short: "Fetch every version of a package",
		Long: `Fetch the packument of a package: all published versions plus package-level metadata.

With --abbreviated only the fields needed for installation are returned.

Examples:
  npmreg packument react
  npmreg packument @types/node --abbreviated`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return c.withClient(cmd.Context(), func(ctx context.Context, client *npm.Client) error {
				if abbreviated {
					return c.fetch(ctx, "Fetching abbreviated packument of "+name, func(ctx context.Context) (any, error) {
						return client.GetAbbreviatedPackument(ctx, name)
					})
				}
				return c.fetch(ctx, "Fetching packument of "+name, func(ctx context.Context) (any, error) {
					return client.GetPackument(ctx, name)
				})
			})
		},
	}

	cmd.Flags().BoolVar(&abbreviated, "abbreviated", false, "fetch the install-only abbreviated form")
	return cmd
}

// manifestCommand creates the "manifest" command.
func (c *CLI) manifestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "manifest <name[@version-or-tag]>...",
		Short: "Fetch the manifest of one or more package versions",
		Long: `Fetch version manifests. Without a version the "latest" dist-tag is used.
Several manifests are fetched concurrently and printed as a JSON array.

Examples:
  npmreg manifest react
  npmreg manifest react@18.2.0 react@next @types/node@20.0.0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withClient(cmd.Context(), func(ctx context.Context, client *npm.Client) error {
				message := fmt.Sprintf("Fetching %d manifest(s)", len(args))
				return c.fetch(ctx, message, func(ctx context.Context) (any, error) {
					manifests, err := fetchManifests(ctx, client, args)
					if err != nil || len(manifests) > 1 {
						return manifests, err
					}
					return manifests[0], nil
				})
			})
		},
	}
}

// fetchManifests fetches specs concurrently, preserving argument order.
// The first failure cancels the remaining fetches.
func fetchManifests(ctx context.Context, client *npm.Client, specs []string) ([]npm.PackageManifest, error) {
	out := make([]npm.PackageManifest, len(specs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(manifestConcurrency)
	for i, spec := range specs {
		name, version := splitSpec(spec)
		g.Go(func() error {
			m, err := client.GetPackageManifest(ctx, name, version)
			if err != nil {
				return fmt.Errorf("%s: %w", spec, err)
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// splitSpec splits "name@version" at the last @ that is not the scope
// marker. "@types/node" has no version; "@types/node@20" does.
func splitSpec(spec string) (name, version string) {
	i := strings.LastIndexByte(spec, '@')
	if i <= 0 {
		return spec, ""
	}
	return spec[:i], spec[i+1:]
}
