package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for controlgraph. Framework IDs complete
for --focus and the framework arguments of status and resources.

To load completions:

Bash:
  $ source <(controlgraph completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ controlgraph completion bash > /etc/bash_completion.d/controlgraph
  # macOS:
  $ controlgraph completion bash > $(brew --prefix)/etc/bash_completion.d/controlgraph

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ controlgraph completion zsh > "${fpath[1]}/_controlgraph"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ controlgraph completion fish | source

  # To load completions for each session, execute once:
  $ controlgraph completion fish > ~/.config/fish/completions/controlgraph.fish

PowerShell:
  PS> controlgraph completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> controlgraph completion powershell > controlgraph.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// completeFrameworkIDs completes framework IDs from the active catalog.
func (c *CLI) completeFrameworkIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cat, err := c.loadCatalog(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, f := range cat.Frameworks {
		if strings.HasPrefix(f.ID, toComplete) {
			out = append(out, f.ID+"\t"+f.Name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
