package cli

import (
	"context"
	"io"
	"testing"

	gemerrors "github.com/matzehuels/gemlock/pkg/errors"
	"github.com/matzehuels/gemlock/pkg/gemver"
	"github.com/matzehuels/gemlock/pkg/lockio"
	"github.com/matzehuels/gemlock/pkg/manifest"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

func TestApplyLock(t *testing.T) {
	prev := &lockio.Lock{Gems: []resolve.ResolvedGem{
		{Name: "rails", Version: "7.1.2"},
		{Name: "rack", Version: "3.0.8"},
	}}
	m := resolve.Manifest{Gems: []resolve.Gem{{Name: "rails"}}}

	var ropts resolve.Options
	if err := applyLock(&ropts, prev, m, lockOptions{level: "major"}); err != nil {
		t.Fatalf("applyLock: %v", err)
	}
	if !ropts.Conservative || len(ropts.Locked) != 2 || len(ropts.Overrides) != 0 {
		t.Errorf("relock without updates should only prefer locked versions: %+v", ropts)
	}

	ropts = resolve.Options{}
	if err := applyLock(&ropts, prev, m, lockOptions{update: []string{"rack"}, level: "minor"}); err != nil {
		t.Fatalf("applyLock: %v", err)
	}
	if _, ok := ropts.Locked["rack"]; ok || len(ropts.Locked) != 1 {
		t.Errorf("updated gems should not prefer their locked version: %v", ropts.Locked)
	}
	if !ropts.Overrides["rails"].Match(gemver.MustParse("7.1.2")) || ropts.Overrides["rails"].Match(gemver.MustParse("7.1.3")) {
		t.Errorf("rails should be pinned, got %s", ropts.Overrides["rails"])
	}
	rack := ropts.Overrides["rack"]
	if !rack.Match(gemver.MustParse("3.1.0")) || rack.Match(gemver.MustParse("4.0.0")) {
		t.Errorf("rack should stay within 3.x, got %s", rack)
	}

	ropts = resolve.Options{}
	if err := applyLock(&ropts, prev, m, lockOptions{update: []string{"rails"}, conservative: true}); err != nil {
		t.Fatalf("applyLock: %v", err)
	}
	if len(ropts.Locked) != 2 {
		t.Errorf("--conservative should keep every locked version as a preference: %v", ropts.Locked)
	}
	if _, ok := ropts.Overrides["rack"]; ok {
		t.Errorf("transitive rack should not be pinned, got %s", ropts.Overrides["rack"])
	}

	err := applyLock(&ropts, prev, m, lockOptions{level: "huge"})
	if !gemerrors.Is(err, gemerrors.ErrCodeInvalidInput) {
		t.Errorf("unknown level should be rejected, got %v", err)
	}
}

func TestApplyLockLetsTransitiveGemsMove(t *testing.T) {
	src := resolve.NewMemorySource().
		Add("a", "1.0", "", "b", ">= 1.0").
		Add("b", "1.0", "").
		Add("b", "2.0", "").
		Add("c", "1.0", "", "b", ">= 2.0")
	prev := &lockio.Lock{Gems: []resolve.ResolvedGem{
		{Name: "a", Version: "1.0"},
		{Name: "b", Version: "1.0"},
	}}
	m := resolve.Manifest{Gems: []resolve.Gem{{Name: "a"}, {Name: "c"}}}

	for _, opts := range []lockOptions{
		{level: "major"},
		{level: "major", update: []string{"c"}},
	} {
		ropts := resolve.Options{Platforms: []string{"x86_64-linux"}}
		if err := applyLock(&ropts, prev, m, opts); err != nil {
			t.Fatalf("applyLock: %v", err)
		}
		res, err := resolve.Resolve(context.Background(), m, src, ropts)
		if err != nil {
			t.Fatalf("Resolve with update %v: %v", opts.update, err)
		}
		got := make(map[string]string)
		for _, g := range res.Gems {
			got[g.Name] = g.Version
		}
		if got["a"] != "1.0" || got["b"] != "2.0" || got["c"] != "1.0" {
			t.Errorf("update %v resolved %v, want a 1.0, b 2.0, c 1.0", opts.update, got)
		}
	}
}

func TestResolveOptionsPrecedence(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.config.Platforms = []string{"x86_64-linux"}
	c.config.Workers = 3

	mf := &manifest.File{Platforms: []string{"arm64-darwin"}, Ruby: "3.2.2"}

	opts, err := c.resolveOptions(mf, resolveFlags{})
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}
	if len(opts.Platforms) != 1 || opts.Platforms[0] != "arm64-darwin" {
		t.Errorf("manifest platforms should beat config, got %v", opts.Platforms)
	}
	if opts.Workers != 3 {
		t.Errorf("workers should come from config, got %d", opts.Workers)
	}
	if opts.RubyVersion.String() != "3.2.2" {
		t.Errorf("ruby = %s, want 3.2.2", opts.RubyVersion)
	}

	opts, err = c.resolveOptions(mf, resolveFlags{platforms: []string{"java"}, ruby: "3.3.0", workers: 1})
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}
	if opts.Platforms[0] != "java" || opts.RubyVersion.String() != "3.3.0" || opts.Workers != 1 {
		t.Errorf("flags should win: %+v", opts)
	}

	if _, err := c.resolveOptions(mf, resolveFlags{ruby: "three"}); err == nil {
		t.Error("invalid --ruby should fail")
	}
}
