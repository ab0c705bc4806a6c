package cli

import (
	"cmp"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gemlock/internal/server"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

// serveOptions holds flags for the serve command.
type serveOptions struct {
	registryFlags
	addr string
	warm []string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolutions over HTTP",
		Long: `Serve starts an HTTP API that resolves manifests posted to /v1/resolve.
Registry metadata and finished resolutions are cached in the configured
cache backend, so several instances can share a Redis or MongoDB cache.`,
		Example: `  gemlock serve --addr :9292 --warm rails,rack`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	opts.registryFlags.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default: from config)")
	cmd.Flags().StringSliceVar(&opts.warm, "warm", nil, "gems to prefetch before serving")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOptions) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	client, backend, err := c.newClient(ctx, opts.registryFlags)
	if err != nil {
		return err
	}
	defer backend.Close()

	srv := server.New(server.Config{
		Addr:      cmp.Or(opts.addr, c.config.Server.Addr),
		Source:    resolve.NewRegistrySource(client, opts.refresh, logger),
		Registry:  client.URL(),
		Cache:     backend,
		Keyer:     c.keyer(),
		ResultTTL: c.config.Server.ResultTTL.Duration,
		Options: resolve.Options{
			Platforms:    c.config.Platforms,
			Workers:      c.config.Workers,
			FetchTimeout: c.config.FetchTimeout.Duration,
			Logger:       logger,
		},
		Logger: logger,
	})

	if len(opts.warm) > 0 {
		prog := newProgress(logger)
		if err := srv.Warm(ctx, opts.warm); err != nil {
			return err
		}
		prog.done("Warmed cache")
	}
	return srv.ListenAndServe(ctx)
}
