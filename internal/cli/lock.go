package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	gemerrors "github.com/matzehuels/gemlock/pkg/errors"
	"github.com/matzehuels/gemlock/pkg/lockio"
	"github.com/matzehuels/gemlock/pkg/manifest"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

// lockOptions holds flags for the lock command.
type lockOptions struct {
	registryFlags
	resolveFlags
	output       string
	update       []string
	updateAll    bool
	level        string
	strict       bool
	conservative bool
	dryRun       bool
	table        bool
}

// lockCommand creates the lock command.
func (c *CLI) lockCommand() *cobra.Command {
	opts := lockOptions{}

	cmd := &cobra.Command{
		Use:   "lock [Gemfile.toml]",
		Short: "Resolve the manifest and write the lock file",
		Long: `Resolve the gems declared in the manifest and write the chosen versions to
gemlock.json next to it.

When a lock file already exists, locked gems keep their version where the
manifest allows it. Gems named with --update (or all with --update-all) may
move as far as --level allows; the other declared gems are then pinned.`,
		Example: `  # Resolve for the local platform
  gemlock lock

  # Resolve for CI and developer machines
  gemlock lock -p x86_64-linux -p arm64-darwin

  # Move rails to the newest patch release, keeping everything else
  gemlock lock --update rails --level patch

  # Resolve from cached metadata only
  gemlock lock --local`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLock(cmd.Context(), manifestArg(args), opts)
		},
	}

	opts.registryFlags.register(cmd)
	opts.resolveFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "lock file path (default: gemlock.json next to the manifest)")
	cmd.Flags().StringSliceVar(&opts.update, "update", nil, "gems allowed to move away from their locked version")
	cmd.Flags().BoolVar(&opts.updateAll, "update-all", false, "allow every locked gem to move")
	cmd.Flags().StringVar(&opts.level, "level", "major", "how far updated gems may move: major, minor or patch")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "never move an updated gem below its locked version")
	cmd.Flags().BoolVar(&opts.conservative, "conservative", false, "let updated gems prefer their locked or nearest version too")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "resolve and report changes without writing the lock file")
	cmd.Flags().BoolVar(&opts.table, "table", false, "print the resolved gems as a table")

	return cmd
}

func (c *CLI) runLock(ctx context.Context, path string, opts lockOptions) error {
	logger := loggerFromContext(ctx)

	mf, err := manifest.Load(path)
	if err != nil {
		return err
	}
	m, err := mf.Manifest()
	if err != nil {
		return err
	}
	ropts, err := c.resolveOptions(mf, opts.resolveFlags)
	if err != nil {
		return err
	}

	lockPath := lockPathFor(path, opts.output)
	prev, err := readLock(lockPath)
	if err != nil {
		return err
	}
	if prev != nil {
		if err := applyLock(&ropts, prev, m, opts); err != nil {
			return err
		}
	} else if len(opts.update) > 0 {
		printWarning("No lock file at %s; resolving from scratch", lockPath)
	}

	client, backend, err := c.newClient(ctx, opts.registryFlags)
	if err != nil {
		return err
	}
	defer backend.Close()

	c.stats.reset()
	src := resolve.NewRegistrySource(client, opts.refresh, logger)
	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Resolving dependencies...").WithStatus(c.stats.status)
	spinner.Start()
	res, err := resolve.Resolve(ctx, m, src, ropts)
	if err != nil {
		spinner.StopWithError("Could not resolve dependencies")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Resolved %d gems", len(res.Gems)))
	printStats(len(res.Gems), res.Stats, c.stats.hits.Load(), c.stats.misses.Load())

	if prev != nil {
		if changes := diffLocks(prev.Gems, res.Gems); len(changes) > 0 {
			printChanges(changes)
		}
	}
	if opts.table {
		fmt.Println(gemTable(res.Gems))
	}
	if opts.dryRun {
		printInfo("Dry run, %s not written", lockPath)
		return nil
	}

	lock := lockio.FromResult(res, ropts.Platforms, mf.Ruby)
	if err := lockio.ExportJSON(lock, lockPath); err != nil {
		return err
	}
	printSuccess("Lock written")
	printFile(lockPath)
	return nil
}

// readLock loads the previous lock, or returns nil when there is none.
func readLock(path string) (*lockio.Lock, error) {
	l, err := lockio.ImportJSON(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return l, err
}

// applyLock turns the previous lock into preferences and pins. Gems that
// are not being updated prefer their locked version; only gems the
// manifest declares are pinned, so transitive gems can still move when the
// manifest changes.
func applyLock(ropts *resolve.Options, prev *lockio.Lock, m resolve.Manifest, opts lockOptions) error {
	locked, err := prev.Locked()
	if err != nil {
		return err
	}
	level, ok := resolve.ParseUpdateLevel(opts.level)
	if !ok {
		return gemerrors.New(gemerrors.ErrCodeInvalidInput, "unknown update level %q", opts.level)
	}

	direct := make([]string, 0, len(m.Gems))
	for _, g := range m.Gems {
		direct = append(direct, g.Name)
	}
	u := resolve.Update{
		Gems:   opts.update,
		All:    opts.updateAll,
		Level:  level,
		Strict: opts.strict,
		Direct: direct,
	}

	ropts.Conservative = true
	ropts.Locked = u.Preferred(locked)
	if opts.conservative {
		ropts.Locked = locked
	}
	ropts.Overrides = resolve.UpdateOverrides(locked, u)
	return nil
}
