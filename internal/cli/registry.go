package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/npmreg/pkg/integrations/npm"
)

// keysCommand creates the "keys" command.
func (c *CLI) keysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Fetch the registry's public signing keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withClient(cmd.Context(), func(ctx context.Context, client *npm.Client) error {
				return c.fetch(ctx, "Fetching signing keys", func(ctx context.Context) (any, error) {
					return client.GetRegistrySigningKeys(ctx)
				})
			})
		},
	}
}

// metadataCommand creates the "metadata" command.
func (c *CLI) metadataCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "metadata",
		Short: "Fetch the registry's root document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withClient(cmd.Context(), func(ctx context.Context, client *npm.Client) error {
				return c.fetch(ctx, "Fetching registry metadata", func(ctx context.Context) (any, error) {
					return client.GetRegistryMetadata(ctx)
				})
			})
		},
	}
}
