// Package manifest reads Gemfile.toml, the declarative manifest gemlock
// resolves.
//
// A manifest names the default source, the ruby version to resolve for,
// the target platforms and one [[gem]] table per declared gem:
//
//	name = "myapp"
//	source = "https://rubygems.org"
//	ruby = "3.3.0"
//	platforms = ["x86_64-linux", "arm64-darwin"]
//
//	[[gem]]
//	name = "rails"
//	version = "~> 7.1"
//
//	[[gem]]
//	name = "rspec"
//	version = [">= 3.12", "< 4"]
//	groups = ["test"]
//
// The Ruby Gemfile DSL itself is not parsed.
package manifest

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gemlock/pkg/cache"
	"github.com/matzehuels/gemlock/pkg/errors"
	"github.com/matzehuels/gemlock/pkg/gemver"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

// DefaultGroup is assigned to gems that declare no group.
const DefaultGroup = "default"

// File is a parsed Gemfile.toml.
type File struct {
	Name       string   `toml:"name"`
	Source     string   `toml:"source"`
	Ruby       string   `toml:"ruby"`
	Platforms  []string `toml:"platforms"`
	Prerelease bool     `toml:"prerelease"`
	Gems       []Gem    `toml:"gem"`
}

// Gem is one [[gem]] table.
type Gem struct {
	Name    string   `toml:"name"`
	Version any      `toml:"version"` // a requirement string or a list of them
	Groups  []string `toml:"groups"`
	Group   string   `toml:"group"`
	Source  string   `toml:"source"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a manifest document.
func Parse(data []byte) (*File, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode manifest")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "unknown manifest key %q", undecoded[0].String())
	}
	if _, err := f.Manifest(); err != nil {
		return nil, err
	}
	if _, err := f.RubyVersion(); err != nil {
		return nil, err
	}
	for _, p := range f.Platforms {
		if err := errors.ValidatePlatform(p); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// Manifest converts the file into the resolver's input. Requirements are
// checked here so a malformed manifest fails before any metadata is fetched.
func (f *File) Manifest() (resolve.Manifest, error) {
	m := resolve.Manifest{Name: f.Name, Gems: make([]resolve.Gem, 0, len(f.Gems))}
	for i, g := range f.Gems {
		if g.Name == "" {
			return resolve.Manifest{}, errors.New(errors.ErrCodeInvalidManifest, "gem #%d has no name", i+1)
		}
		if err := errors.ValidateGemName(g.Name); err != nil {
			return resolve.Manifest{}, errors.Wrap(errors.ErrCodeInvalidManifest, err, "gem #%d", i+1)
		}
		req, err := requirement(g.Version)
		if err != nil {
			return resolve.Manifest{}, errors.Wrap(errors.ErrCodeInvalidManifest, err, "gem %s", g.Name)
		}
		m.Gems = append(m.Gems, resolve.Gem{
			Name:        g.Name,
			Requirement: req,
			Groups:      g.groups(),
			Source:      cmp.Or(g.Source, f.Source),
		})
	}
	return m, nil
}

// RubyVersion returns the declared ruby version, or the zero Version when
// the manifest does not pin one.
func (f *File) RubyVersion() (gemver.Version, error) {
	if f.Ruby == "" {
		return gemver.Version{}, nil
	}
	v, err := gemver.Parse(f.Ruby)
	if err != nil {
		return gemver.Version{}, errors.Wrap(errors.ErrCodeInvalidManifest, err, "ruby")
	}
	return v, nil
}

// Hash identifies the manifest's resolution inputs for cache keys.
func (f *File) Hash() string {
	m, _ := f.Manifest()
	return HashManifest(m)
}

// HashManifest hashes a resolver manifest.
func HashManifest(m resolve.Manifest) string {
	data, _ := json.Marshal(m)
	return cache.Hash(data)
}

func (g Gem) groups() []string {
	groups := slices.Clone(g.Groups)
	if g.Group != "" {
		groups = append(groups, g.Group)
	}
	if len(groups) == 0 {
		return []string{DefaultGroup}
	}
	return groups
}

func requirement(v any) (string, error) {
	var parts []string
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		parts = []string{v}
	case []any:
		for _, p := range v {
			s, ok := p.(string)
			if !ok {
				return "", fmt.Errorf("version list entry %v is not a string", p)
			}
			parts = append(parts, s)
		}
	default:
		return "", fmt.Errorf("version must be a string or a list of strings, got %T", v)
	}

	req := strings.Join(parts, ", ")
	if _, err := gemver.ParseRequirement(req); err != nil {
		return "", err
	}
	return req, nil
}
