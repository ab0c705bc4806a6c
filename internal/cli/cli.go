package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gemlock/pkg/buildinfo"
	"github.com/matzehuels/gemlock/pkg/cache"
	"github.com/matzehuels/gemlock/pkg/gemver"
	"github.com/matzehuels/gemlock/pkg/integrations/rubygems"
	"github.com/matzehuels/gemlock/pkg/manifest"
	"github.com/matzehuels/gemlock/pkg/observability"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "gemlock"

	// defaultManifest is read when no manifest argument is given.
	defaultManifest = "Gemfile.toml"

	// defaultLockFile is written next to the manifest.
	defaultLockFile = "gemlock.json"

	// defaultCacheTTL is how long registry metadata stays fresh.
	defaultCacheTTL = 24 * time.Hour
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile string
	config     *Config
	stats      *cacheStats
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: defaultConfig(),
		stats:  &cacheStats{},
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "gemlock resolves Ruby gem dependencies into a lock file",
		Long:         `gemlock resolves the gems a manifest declares against RubyGems metadata, producing an exact, reproducible set of versions and platform builds. When no solution exists it explains why.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, explicit := c.configFile, c.configFile != ""
			if !explicit {
				path, _ = configPath()
			}
			cfg, err := loadConfig(path, explicit)
			if err != nil {
				return err
			}
			c.config = cfg
			observability.SetResolverHooks(&logHooks{logger: c.Logger, stats: c.stats})
			observability.SetCacheHooks(c.stats)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default: ~/.config/gemlock/config.toml)")

	root.AddCommand(c.lockCommand())
	root.AddCommand(c.explainCommand())
	root.AddCommand(c.whyCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.platformCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Flags
// =============================================================================

// registryFlags select where metadata comes from.
type registryFlags struct {
	registry string
	local    bool
	refresh  bool
	noCache  bool
}

func (f *registryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.registry, "registry", "", "registry URL (default: from config or rubygems.org)")
	cmd.Flags().BoolVar(&f.local, "local", false, "use cached metadata only, never touch the network")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached metadata and fetch again")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the metadata cache")
}

// resolveFlags tune a resolution.
type resolveFlags struct {
	platforms  []string
	prerelease bool
	pre        []string
	ruby       string
	workers    int
	timeout    time.Duration
}

func (f *resolveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.platforms, "platform", "p", nil, "target platform (repeatable; default: manifest, config or local)")
	cmd.Flags().BoolVar(&f.prerelease, "pre", false, "allow prerelease versions of every gem")
	cmd.Flags().StringSliceVar(&f.pre, "pre-gem", nil, "allow prerelease versions of these gems")
	cmd.Flags().StringVar(&f.ruby, "ruby", "", "ruby version to resolve for (default: manifest)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "concurrent metadata fetches (default: from config)")
	cmd.Flags().DurationVar(&f.timeout, "fetch-timeout", 0, "per-gem fetch timeout (default: from config)")
}

// =============================================================================
// Factories
// =============================================================================

// newClient builds a registry client over the configured cache backend.
// The caller must close the returned cache.
func (c *CLI) newClient(ctx context.Context, f registryFlags) (*rubygems.Client, cache.Cache, error) {
	backend, err := c.newCache(ctx, f.noCache)
	if err != nil {
		return nil, nil, err
	}
	registry := f.registry
	if registry == "" {
		registry = c.config.Registry
	}
	client := rubygems.NewClient(backend, c.config.Cache.TTL.Duration, registry)
	client.SetKeyer(c.keyer())
	client.SetOffline(f.local)
	return client, backend, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cfg, err := c.config.cacheConfig()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.Open(ctx, cfg)
}

func (c *CLI) keyer() cache.Keyer {
	if c.config.Cache.Prefix != "" {
		return cache.NewScopedKeyer(nil, c.config.Cache.Prefix)
	}
	return cache.NewDefaultKeyer()
}

// resolveOptions merges flags, manifest and config. Flags win over the
// manifest, the manifest wins over the config.
func (c *CLI) resolveOptions(mf *manifest.File, f resolveFlags) (resolve.Options, error) {
	opts := resolve.Options{
		Platforms:      f.platforms,
		Prerelease:     f.prerelease || mf.Prerelease,
		PrereleaseGems: f.pre,
		Workers:        f.workers,
		FetchTimeout:   f.timeout,
		Logger:         c.Logger,
	}
	if len(opts.Platforms) == 0 {
		opts.Platforms = mf.Platforms
	}
	if len(opts.Platforms) == 0 {
		opts.Platforms = c.config.Platforms
	}
	if opts.Workers <= 0 {
		opts.Workers = c.config.Workers
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = c.config.FetchTimeout.Duration
	}

	ruby, err := mf.RubyVersion()
	if err != nil {
		return opts, err
	}
	if f.ruby != "" {
		if ruby, err = gemver.Parse(f.ruby); err != nil {
			return opts, err
		}
	}
	opts.RubyVersion = ruby
	return opts.WithDefaults(), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/gemlock/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// manifestArg returns the manifest path given on the command line.
func manifestArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultManifest
}

// lockPathFor returns the lock file that belongs to a manifest.
func lockPathFor(manifestPath, override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(filepath.Dir(manifestPath), defaultLockFile)
}
