package render

import (
	"cmp"
	"slices"

	"github.com/matzehuels/gemlock/pkg/resolve"
)

// Node is one gem in the graph.
type Node struct {
	Name      string
	Version   string
	Platforms []string // builds other than the platform-independent one
	Groups    []string
	Root      bool // declared by the manifest
}

// Edge is a runtime dependency between two gems.
type Edge struct {
	From, To    string
	Requirement string
}

// Graph is a resolved dependency graph.
type Graph struct {
	Root  string // label of the manifest node; empty omits it
	Nodes []Node
	Edges []Edge
}

// Build folds the gem builds into a graph. Gems carrying manifest groups
// are treated as declared by the manifest unless roots names them
// explicitly.
func Build(root string, gems []resolve.ResolvedGem, roots ...string) *Graph {
	g := &Graph{Root: root}
	index := make(map[string]int)
	seen := make(map[Edge]bool)

	for _, gem := range gems {
		i, ok := index[gem.Name]
		if !ok {
			i = len(g.Nodes)
			index[gem.Name] = i
			isRoot := len(gem.Groups) > 0
			if len(roots) > 0 {
				isRoot = slices.Contains(roots, gem.Name)
			}
			g.Nodes = append(g.Nodes, Node{
				Name:    gem.Name,
				Version: gem.Version,
				Groups:  gem.Groups,
				Root:    isRoot,
			})
		}
		if gem.Platform != "" {
			g.Nodes[i].Platforms = append(g.Nodes[i].Platforms, gem.Platform)
		}
		for _, d := range gem.Dependencies {
			e := Edge{From: gem.Name, To: d.Name, Requirement: d.Requirement}
			if !seen[e] {
				seen[e] = true
				g.Edges = append(g.Edges, e)
			}
		}
	}

	slices.SortFunc(g.Nodes, func(a, b Node) int { return cmp.Compare(a.Name, b.Name) })
	slices.SortFunc(g.Edges, func(a, b Edge) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To), cmp.Compare(a.Requirement, b.Requirement))
	})
	return g
}

// Roots returns the names of manifest-declared gems.
func (g *Graph) Roots() []string {
	var out []string
	for _, n := range g.Nodes {
		if n.Root {
			out = append(out, n.Name)
		}
	}
	return out
}

// Focus returns the subgraph reachable from name, or nil if the graph has
// no such gem. The manifest node is dropped.
func (g *Graph) Focus(name string) *Graph {
	adj := make(map[string][]string)
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	if !slices.ContainsFunc(g.Nodes, func(n Node) bool { return n.Name == name }) {
		return nil
	}

	keep := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !keep[next] {
				keep[next] = true
				queue = append(queue, next)
			}
		}
	}

	out := &Graph{}
	for _, n := range g.Nodes {
		if keep[n.Name] {
			n.Root = n.Name == name
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range g.Edges {
		if keep[e.From] && keep[e.To] {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}
