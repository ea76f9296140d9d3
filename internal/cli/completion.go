package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/npmreg/pkg/integrations/npm"
)

// completionCommand generates shell completion scripts on the CLI's output.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for npmreg.

  $ source <(npmreg completion bash)
  $ npmreg completion zsh > "${fpath[1]}/_npmreg"
  $ npmreg completion fish > ~/.config/fish/completions/npmreg.fish
  PS> npmreg completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(c.out, true)
			case "zsh":
				return root.GenZshCompletion(c.out)
			case "fish":
				return root.GenFishCompletion(c.out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(c.out)
			}
		},
	}
}

// completeFixed returns a completion func offering values verbatim.
func completeFixed(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

var periodCompletions = completeFixed(
	string(npm.LastDay), string(npm.LastWeek), string(npm.LastMonth), string(npm.LastYear),
)
