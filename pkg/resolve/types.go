package resolve

import (
	"github.com/matzehuels/gemlock/pkg/gemver"
)

// DefaultRootName is how the manifest is named in explanations when
// Manifest.Name is empty.
const DefaultRootName = "Gemfile"

// rootPackage is the internal name of the manifest in terms. It cannot
// collide with a gem because gem names never start with "$".
const rootPackage = "$root"

// Manifest is the set of gems an application declares.
type Manifest struct {
	// Name is used for the root in failure explanations.
	Name string `json:"name,omitempty"`
	// Gems are the declared requirements in declaration order.
	Gems []Gem `json:"gems"`
}

// Gem is one manifest declaration.
type Gem struct {
	Name        string   `json:"name"`
	Requirement string   `json:"requirement,omitempty"` // e.g. "~> 7.1, >= 7.1.2"; empty for any
	Groups      []string `json:"groups,omitempty"`      // passed through to the output
	Source      string   `json:"source,omitempty"`      // explicit source, passed through
}

// Dependency is an edge from a gem version to a requirement on another gem.
type Dependency struct {
	Name        string
	Requirement gemver.Requirement
}

// Candidate is one published build of a gem: a version for one platform.
// Candidates are immutable once returned by a Source.
type Candidate struct {
	Name         string
	Version      gemver.Version
	Platform     string // "" for pure-Ruby builds
	Dependencies []Dependency
	RequiredRuby gemver.Requirement
}

// Prerelease reports whether the candidate's version is a prerelease.
func (c Candidate) Prerelease() bool { return c.Version.IsPrerelease() }

// ResolvedDependency is a dependency as recorded in the output.
type ResolvedDependency struct {
	Name        string `json:"name"`
	Requirement string `json:"requirement"`
}

// ResolvedGem is one gem build chosen by the resolver.
type ResolvedGem struct {
	Name         string               `json:"name"`
	Version      string               `json:"version"`
	Platform     string               `json:"platform,omitempty"` // empty means platform-independent
	Dependencies []ResolvedDependency `json:"dependencies,omitempty"`
	Groups       []string             `json:"groups,omitempty"`
	Source       string               `json:"source,omitempty"`
	RequiredRuby string               `json:"required_ruby,omitempty"`
}

// Key returns "name" or "name-platform", the identity of the gem build.
func (g ResolvedGem) Key() string {
	if g.Platform == "" {
		return g.Name
	}
	return g.Name + "-" + g.Platform
}

// Stats summarizes a solver run.
type Stats struct {
	Decisions int `json:"decisions"`
	Conflicts int `json:"conflicts"`
	Steps     int `json:"steps"`
	Packages  int `json:"packages"`
	Fetched   int `json:"fetched"` // names requested from the source, prefetches included
}

// Result is the outcome of a successful resolution.
type Result struct {
	RunID string        `json:"run_id"`
	Gems  []ResolvedGem `json:"gems"`
	Stats Stats         `json:"stats"`
}
