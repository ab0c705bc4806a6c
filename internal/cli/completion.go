package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for gemlock.

To load completions:

Bash:
  $ source <(gemlock completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ gemlock completion bash > /etc/bash_completion.d/gemlock
  # macOS:
  $ gemlock completion bash > $(brew --prefix)/etc/bash_completion.d/gemlock

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ gemlock completion zsh > "${fpath[1]}/_gemlock"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ gemlock completion fish | source

  # To load completions for each session, execute once:
  $ gemlock completion fish > ~/.config/fish/completions/gemlock.fish

PowerShell:
  PS> gemlock completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> gemlock completion powershell > gemlock.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
