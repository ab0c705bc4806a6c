package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gemlock/internal/cli"
	gemerrors "github.com/matzehuels/gemlock/pkg/errors"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		report(err)
		os.Exit(gemerrors.ExitCode(err))
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := cli.LogInfo
		if verbose {
			level = cli.LogDebug
		}
		c.SetLogLevel(level)

		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}

// report prints err for humans. Unsatisfiable manifests get the full
// derivation instead of the one-line error.
func report(err error) {
	var se *resolve.SolveError
	if errors.As(err, &se) {
		fmt.Fprintln(os.Stderr, "Error: version solving failed")
		fmt.Fprintln(os.Stderr)
		for _, line := range se.Explanation() {
			fmt.Fprintln(os.Stderr, line)
		}
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
}
