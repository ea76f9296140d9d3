package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/npmreg/pkg/integrations/npm"
)

// searchCommand creates the "search" command.
func (c *CLI) searchCommand() *cobra.Command {
	var (
		criteria npm.SearchCriteria
		asTable  bool
	)

	cmd := &cobra.Command{
		Use:   "search <text>...",
		Short: "Search for packages",
		Long: `Search the registry. Words are joined into one query, which may use
qualifiers such as author:, maintainer:, keywords: and scope:.

Examples:
  npmreg search react hooks --size 5
  npmreg search keywords:cli --popularity 1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria.Text = strings.Join(args, " ")
			return c.withClient(cmd.Context(), func(ctx context.Context, client *npm.Client) error {
				message := fmt.Sprintf("Searching for %q", criteria.Text)
				if !asTable {
					return c.fetch(ctx, message, func(ctx context.Context) (any, error) {
						return client.SearchPackages(ctx, criteria)
					})
				}
				res, err := client.SearchPackages(ctx, criteria)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, searchTable(res))
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&criteria.Size, "size", 0, fmt.Sprintf("number of results (max %d)", npm.MaxSearchSize))
	flags.IntVar(&criteria.From, "from", 0, "offset of the first result")
	flags.Float64Var(&criteria.Quality, "quality", 0, "quality weight in [0, 1]")
	flags.Float64Var(&criteria.Popularity, "popularity", 0, "popularity weight in [0, 1]")
	flags.Float64Var(&criteria.Maintenance, "maintenance", 0, "maintenance weight in [0, 1]")
	flags.BoolVar(&asTable, "table", false, "print a table instead of JSON")
	return cmd
}

// maxDescriptionWidth truncates descriptions in search tables.
const maxDescriptionWidth = 60

// searchTable renders search hits as a bordered table.
func searchTable(res npm.SearchResults) *table.Table {
	rows := make([][]string, 0, len(res.Objects))
	for _, o := range res.Objects {
		desc := o.Package.Description
		if r := []rune(desc); len(r) > maxDescriptionWidth {
			desc = string(r[:maxDescriptionWidth-1]) + "…"
		}
		rows = append(rows, []string{
			o.Package.Name,
			o.Package.Version,
			fmt.Sprintf("%.2f", o.Score.Final),
			desc,
		})
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("Package", "Version", "Score", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 2 {
				return lipgloss.NewStyle().Foreground(colorCyan).PaddingRight(1)
			}
			return lipgloss.NewStyle().PaddingRight(1)
		})
}
