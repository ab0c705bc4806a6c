package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gemlock/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the metadata cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePruneCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand. Only keys under
// the configured prefix are removed so a shared backend stays usable by
// other teams.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached metadata and resolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := c.newCache(ctx, false)
			if err != nil {
				return err
			}
			defer backend.Close()

			n, ok, err := cache.Clear(ctx, backend, c.config.Cache.Prefix)
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if !ok {
				printInfo("The %s cache backend cannot be cleared", c.config.Cache.Backend)
				return nil
			}
			printSuccess("Cleared %d cached entries", n)
			if fc, ok := backend.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}
}

// cachePruneCommand creates the "cache prune" subcommand.
func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired entries from the file cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := c.newCache(ctx, false)
			if err != nil {
				return err
			}
			defer backend.Close()

			fc, ok := backend.(*cache.FileCache)
			if !ok {
				printInfo("The %s backend expires entries on its own", c.config.Cache.Backend)
				return nil
			}
			n, err := fc.Prune(ctx)
			if err != nil {
				return fmt.Errorf("prune cache: %w", err)
			}
			printSuccess("Pruned %d expired entries", n)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config.cacheConfig()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if cfg.Dir == "" {
				return fmt.Errorf("the %s cache backend has no directory", cfg.Backend)
			}
			fmt.Println(cfg.Dir)
			return nil
		},
	}
}
