package cli

import (
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/gemlock/pkg/resolve"
)

func TestDiffLocks(t *testing.T) {
	prev := []resolve.ResolvedGem{
		{Name: "nokogiri", Version: "1.15.5", Platform: "x86_64-linux"},
		{Name: "nokogiri", Version: "1.15.5"},
		{Name: "rack", Version: "2.2.8"},
		{Name: "thor", Version: "1.3.0"},
	}
	next := []resolve.ResolvedGem{
		{Name: "nokogiri", Version: "1.16.0", Platform: "x86_64-linux"},
		{Name: "nokogiri", Version: "1.16.0"},
		{Name: "rack", Version: "2.2.8"},
		{Name: "racc", Version: "1.7.3"},
	}

	want := []change{
		{name: "nokogiri", from: "1.15.5", to: "1.16.0"},
		{name: "racc", to: "1.7.3"},
		{name: "thor", from: "1.3.0"},
	}
	if got := diffLocks(prev, next); !slices.Equal(got, want) {
		t.Errorf("diffLocks = %+v, want %+v", got, want)
	}
	if got := diffLocks(next, next); len(got) != 0 {
		t.Errorf("identical locks should not differ: %+v", got)
	}
}

func TestGemTable(t *testing.T) {
	out := gemTable([]resolve.ResolvedGem{
		{Name: "rails", Version: "7.1.2", Groups: []string{"default"}},
		{Name: "nokogiri", Version: "1.16.0", Platform: "arm64-darwin"},
	})
	for _, want := range []string{"Gem", "rails", "7.1.2", "ruby", "arm64-darwin", "default"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
