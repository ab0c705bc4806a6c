package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gemlock/pkg/lockio"
	"github.com/matzehuels/gemlock/pkg/render"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

// Output formats of the graph command.
const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPNG = "png"
	formatPDF = "pdf"
)

// graphOptions holds flags for the graph command.
type graphOptions struct {
	format   string
	output   string
	detailed bool
	focus    string
	scale    float64
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOptions{}

	cmd := &cobra.Command{
		Use:   "graph [gemlock.json]",
		Short: "Draw the dependency graph of a lock file",
		Example: `  # DOT to stdout
  gemlock graph

  # SVG of everything rails pulls in
  gemlock graph -f svg --focus rails -o rails.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultLockFile
			if len(args) > 0 {
				path = args[0]
			}
			return runGraph(cmd.Context(), path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", formatDOT, "output format: dot, svg, png or pdf")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout for dot, gemlock.<format> otherwise)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show platforms, groups and requirements")
	cmd.Flags().StringVar(&opts.focus, "focus", "", "only draw this gem and its dependencies")
	cmd.Flags().Float64Var(&opts.scale, "scale", 2.0, "PNG scale factor")

	return cmd
}

func runGraph(ctx context.Context, path string, opts graphOptions) error {
	lock, err := lockio.ImportJSON(path)
	if err != nil {
		return err
	}

	g := render.Build(resolve.DefaultRootName, lock.Gems)
	if opts.focus != "" {
		if g = g.Focus(opts.focus); g == nil {
			return fmt.Errorf("%s is not in %s", opts.focus, path)
		}
	}
	dot := render.ToDOT(g, render.Options{Detailed: opts.detailed})

	data, err := renderFormat(ctx, dot, opts)
	if err != nil {
		return err
	}
	if opts.format == formatDOT && opts.output == "" {
		fmt.Print(dot)
		return nil
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "." + opts.format
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	printSuccess("Graph written (%d gems)", len(g.Nodes))
	printFile(out)
	return nil
}

func renderFormat(ctx context.Context, dot string, opts graphOptions) ([]byte, error) {
	switch opts.format {
	case formatDOT:
		return []byte(dot), nil
	case formatSVG, formatPNG, formatPDF:
	default:
		return nil, fmt.Errorf("unknown format %q (want dot, svg, png or pdf)", opts.format)
	}

	svg, err := render.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch opts.format {
	case formatPNG:
		return render.ToPNG(svg, opts.scale)
	case formatPDF:
		return render.ToPDF(svg)
	default:
		return svg, nil
	}
}
