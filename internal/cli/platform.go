package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gemlock/pkg/platform"
)

// platformCommand creates the platform command.
func (c *CLI) platformCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "platform [gem-platform...]",
		Short: "Show the local platform or test gem platforms against a target",
		Example: `  # The platform gemlock resolves for by default
  gemlock platform

  # Which of these builds install on arm64 macOS?
  gemlock platform --target arm64-darwin-23 ruby arm64-darwin x86_64-linux`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				target = platform.Detect()
			}
			if len(args) == 0 {
				fmt.Println(target)
				return nil
			}
			for _, p := range args {
				s := platform.Match(p, target)
				if s == platform.None {
					printDetail("%-24s %s", p, StyleDim.Render(s.String()))
					continue
				}
				printKeyValue(p, s.String())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "target platform (default: local)")

	return cmd
}
