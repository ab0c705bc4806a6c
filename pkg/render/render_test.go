package render

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/gemlock/pkg/resolve"
)

func sampleGems() []resolve.ResolvedGem {
	return []resolve.ResolvedGem{
		{Name: "nokogiri", Version: "1.16.0", Platform: "arm64-darwin", Groups: []string{"default"},
			Dependencies: []resolve.ResolvedDependency{{Name: "racc", Requirement: "~> 1.4"}}},
		{Name: "nokogiri", Version: "1.16.0", Platform: "x86_64-linux", Groups: []string{"default"},
			Dependencies: []resolve.ResolvedDependency{{Name: "racc", Requirement: "~> 1.4"}}},
		{Name: "racc", Version: "1.7.3"},
		{Name: "rack", Version: "3.0.8", Groups: []string{"default"}},
	}
}

func TestBuild(t *testing.T) {
	g := Build("Gemfile", sampleGems())

	if len(g.Nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(g.Nodes))
	}
	noko := g.Nodes[0]
	if noko.Name != "nokogiri" || strings.Join(noko.Platforms, ",") != "arm64-darwin,x86_64-linux" {
		t.Errorf("nokogiri node = %+v", noko)
	}
	if len(g.Edges) != 1 || g.Edges[0] != (Edge{From: "nokogiri", To: "racc", Requirement: "~> 1.4"}) {
		t.Errorf("edges = %+v, want one deduplicated edge", g.Edges)
	}
	if got := strings.Join(g.Roots(), ","); got != "nokogiri,rack" {
		t.Errorf("Roots() = %s", got)
	}

	explicit := Build("", sampleGems(), "rack")
	if got := strings.Join(explicit.Roots(), ","); got != "rack" {
		t.Errorf("explicit Roots() = %s", got)
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(Build("Gemfile", sampleGems()), Options{})

	for _, want := range []string{
		"digraph G",
		`"Gemfile" [label="Gemfile", style="rounded,dashed"]`,
		`"rack" [label="rack 3.0.8", penwidth=2`,
		`"racc" [label="racc 1.7.3"]`,
		`"Gemfile" -> "nokogiri";`,
		`"nokogiri" -> "racc";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %s\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"Gemfile" -> "racc"`) {
		t.Error("transitive gem linked to the manifest")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(Build("", sampleGems()), Options{Detailed: true})

	if !strings.Contains(dot, `platforms: arm64-darwin, x86_64-linux`) {
		t.Errorf("detailed label missing platforms:\n%s", dot)
	}
	if !strings.Contains(dot, `"nokogiri" -> "racc" [label="~> 1.4"`) {
		t.Errorf("detailed edge missing requirement:\n%s", dot)
	}
	if strings.Contains(dot, `"" [`) {
		t.Error("empty root rendered as a node")
	}
}

func TestFocus(t *testing.T) {
	g := Build("Gemfile", sampleGems())

	sub := g.Focus("nokogiri")
	if sub == nil || len(sub.Nodes) != 2 || len(sub.Edges) != 1 {
		t.Fatalf("Focus(nokogiri) = %+v", sub)
	}
	if got := strings.Join(sub.Roots(), ","); got != "nokogiri" {
		t.Errorf("focused roots = %s", got)
	}
	if g.Focus("rails") != nil {
		t.Error("Focus on unknown gem should be nil")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	dot := ToDOT(Build("Gemfile", sampleGems()), Options{})
	svg, err := RenderSVG(context.Background(), dot)
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVGInvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
