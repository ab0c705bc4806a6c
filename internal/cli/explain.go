package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gemlock/pkg/lockio"
	"github.com/matzehuels/gemlock/pkg/manifest"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

// explainCommand creates the explain command.
func (c *CLI) explainCommand() *cobra.Command {
	var (
		reg registryFlags
		res resolveFlags
	)

	cmd := &cobra.Command{
		Use:   "explain [Gemfile.toml]",
		Short: "Explain why the manifest cannot be resolved",
		Long: `Resolve the manifest without writing a lock file. If no set of versions
satisfies it, print the chain of incompatibilities that proves it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplain(cmd.Context(), manifestArg(args), reg, res)
		},
	}
	reg.register(cmd)
	res.register(cmd)
	return cmd
}

func (c *CLI) runExplain(ctx context.Context, path string, reg registryFlags, rf resolveFlags) error {
	logger := loggerFromContext(ctx)

	mf, err := manifest.Load(path)
	if err != nil {
		return err
	}
	m, err := mf.Manifest()
	if err != nil {
		return err
	}
	opts, err := c.resolveOptions(mf, rf)
	if err != nil {
		return err
	}
	client, backend, err := c.newClient(ctx, reg)
	if err != nil {
		return err
	}
	defer backend.Close()

	spinner := newSpinnerWithContext(ctx, "Resolving dependencies...").WithStatus(c.stats.status)
	spinner.Start()
	res, err := resolve.Resolve(ctx, m, resolve.NewRegistrySource(client, reg.refresh, logger), opts)
	spinner.Stop()

	var se *resolve.SolveError
	switch {
	case errors.As(err, &se):
		printError("No set of versions satisfies %s", path)
		fmt.Println()
		printExplanation(se.Explanation())
		return nil
	case err != nil:
		return err
	}

	printSuccess("%s resolves to %d gems", path, len(res.Gems))
	printNextStep("Write the lock file", "gemlock lock "+path)
	return nil
}

// whyCommand creates the why command.
func (c *CLI) whyCommand() *cobra.Command {
	var lockPath string

	cmd := &cobra.Command{
		Use:   "why <gem>",
		Short: "Show which declared gems pull a gem into the lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lock, err := lockio.ImportJSON(lockPath)
			if err != nil {
				return err
			}
			chains := dependencyChains(lock, args[0])
			if chains == nil {
				return fmt.Errorf("%s is not in %s", args[0], lockPath)
			}
			if len(chains) == 0 {
				printInfo("%s is locked but no declared gem depends on it", args[0])
				return nil
			}
			for _, chain := range chains {
				fmt.Println("  " + strings.Join(chain, " "+StyleDim.Render(iconArrow)+" "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&lockPath, "lock", "l", defaultLockFile, "lock file to inspect")
	return cmd
}

// maxChains bounds the output of why for gems with many dependents.
const maxChains = 20

// dependencyChains returns the paths from manifest-declared gems down to
// name, shortest first. It returns nil if name is not locked.
func dependencyChains(lock *lockio.Lock, name string) [][]string {
	if len(lock.Find(name)) == 0 {
		return nil
	}
	declared := make(map[string]bool)
	for _, g := range lock.Gems {
		if len(g.Groups) > 0 {
			declared[g.Name] = true
		}
	}

	chains := [][]string{}
	var walk func(path []string)
	walk = func(path []string) {
		if len(chains) >= maxChains {
			return
		}
		head := path[0]
		if declared[head] {
			chains = append(chains, slices.Clone(path))
		}
		for _, parent := range lock.Dependents(head) {
			if slices.Contains(path, parent) {
				continue
			}
			walk(append([]string{parent}, path...))
		}
	}
	walk([]string{name})

	slices.SortStableFunc(chains, func(a, b []string) int { return len(a) - len(b) })
	return chains
}
