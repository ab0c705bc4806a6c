package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gemlock/pkg/gemver"
	"github.com/matzehuels/gemlock/pkg/platform"
)

// infoOptions holds flags for the info command.
type infoOptions struct {
	registryFlags
	versions bool
}

// infoCommand creates the info command.
func (c *CLI) infoCommand() *cobra.Command {
	opts := infoOptions{}

	cmd := &cobra.Command{
		Use:   "info <gem>",
		Short: "Show registry metadata for a gem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInfo(cmd, args[0], opts)
		},
	}

	opts.registryFlags.register(cmd)
	cmd.Flags().BoolVar(&opts.versions, "versions", false, "list every published version and platform")

	return cmd
}

func (c *CLI) runInfo(cmd *cobra.Command, name string, opts infoOptions) error {
	ctx := cmd.Context()
	client, backend, err := c.newClient(ctx, opts.registryFlags)
	if err != nil {
		return err
	}
	defer backend.Close()

	gem, err := client.FetchGem(ctx, name, opts.refresh)
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render(gem.Name))
	printKeyValue("version", gem.Version)
	if !platform.IsRuby(gem.Platform) {
		printKeyValue("platform", gem.Platform)
	}
	if gem.Description != "" {
		printKeyValue("summary", strings.TrimSpace(gem.Description))
	}
	if gem.License != "" {
		printKeyValue("license", gem.License)
	}
	if gem.Authors != "" {
		printKeyValue("authors", gem.Authors)
	}
	printKeyValue("downloads", fmt.Sprintf("%d", gem.Downloads))
	if gem.HomepageURI != "" {
		printKeyValue("homepage", gem.HomepageURI)
	}
	if gem.SourceCodeURI != "" && gem.SourceCodeURI != gem.HomepageURI {
		printKeyValue("source", gem.SourceCodeURI)
	}
	for i, d := range gem.Dependencies {
		key := ""
		if i == 0 {
			key = "depends on"
		}
		printKeyValue(key, d.Name+" "+StyleDim.Render(d.Requirement))
	}

	if !opts.versions {
		return nil
	}

	infos, err := client.FetchInfo(ctx, name, opts.refresh)
	if err != nil {
		return err
	}
	platforms := make(map[string][]string)
	var order []gemver.Version
	for _, info := range infos {
		v, err := gemver.Parse(info.Version)
		if err != nil {
			continue
		}
		key := v.Canonical()
		if _, ok := platforms[key]; !ok {
			order = append(order, v)
		}
		platforms[key] = append(platforms[key], platform.Normalize(info.Platform))
	}
	slices.SortFunc(order, func(a, b gemver.Version) int { return b.Compare(a) })

	fmt.Println()
	printInfo("%d versions", len(order))
	for _, v := range order {
		printDetail("%s  %s", v, StyleDim.Render(strings.Join(platforms[v.Canonical()], ", ")))
	}
	return nil
}
