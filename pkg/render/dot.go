package render

import (
	"bytes"
	"fmt"
	"strings"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds platforms and groups to node labels and requirements
	// to edges. When false, nodes show "name version".
	Detailed bool
}

// ToDOT converts g to Graphviz DOT source. The result can be rendered
// with [RenderSVG] or saved for external Graphviz tools.
//
// Manifest-declared gems are drawn bold; the manifest node is a dashed box.
func ToDOT(g *Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	if g.Root != "" {
		fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,dashed\"];\n", g.Root, g.Root)
	}
	for _, n := range g.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed))}
		if n.Root {
			attrs = append(attrs, "penwidth=2", "fontname=\"Helvetica-Bold\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	if g.Root != "" {
		for _, n := range g.Nodes {
			if n.Root {
				fmt.Fprintf(&buf, "  %q -> %q;\n", g.Root, n.Name)
			}
		}
	}
	for _, e := range g.Edges {
		if opts.Detailed && e.Requirement != "" && e.Requirement != ">= 0" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q, fontsize=10];\n", e.From, e.To, e.Requirement)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n Node, detailed bool) string {
	label := n.Name + " " + n.Version
	if !detailed {
		return label
	}
	var parts []string
	if len(n.Platforms) > 0 {
		parts = append(parts, "platforms: "+strings.Join(n.Platforms, ", "))
	}
	if len(n.Groups) > 0 {
		parts = append(parts, "groups: "+strings.Join(n.Groups, ", "))
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}
