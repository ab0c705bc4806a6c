package resolve

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	gemerrors "github.com/matzehuels/gemlock/pkg/errors"
	"github.com/matzehuels/gemlock/pkg/gemver"
	"github.com/matzehuels/gemlock/pkg/observability"
)

const DefaultMaxSteps = 100000 // Default solver iteration limit

// Options configures a resolution.
type Options struct {
	Platforms      []string                      // Target platforms (default: the local platform)
	Prerelease     bool                          // Allow prereleases of every gem
	PrereleaseGems []string                      // Allow prereleases of these gems
	Overrides      map[string]gemver.Requirement // Extra constraints per gem
	Locked         map[string]gemver.Version     // Previous resolution, used by Conservative
	Conservative   bool                          // Stay close to Locked instead of picking newest
	Preference     Preference                    // Custom version choice (overrides Conservative)
	RubyVersion    gemver.Version                // Skip builds whose required_ruby_version excludes it
	MaxSteps       int                           // Solver iteration limit (default: 100000)
	Workers        int                           // Concurrent metadata fetches (default: 8)
	FetchTimeout   time.Duration                 // Per-fetch limit (default: 30s)
	Logger         *log.Logger                   // Debug output (optional)

	rootName string
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	opts.Platforms = normalizePlatforms(opts.Platforms)
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

func (o Options) preference() Preference {
	switch {
	case o.Preference != nil:
		return o.Preference
	case o.Conservative:
		return Conservative{Locked: o.Locked}
	default:
		return Newest{}
	}
}

// Resolve solves m against the gems src provides. Metadata is fetched
// through a fresh Index that is closed before Resolve returns.
//
// On failure the error wraps a *SolveError; use errors.As to get at its
// Explanation.
func Resolve(ctx context.Context, m Manifest, src Source, opts Options) (*Result, error) {
	opts = opts.WithDefaults()
	ix := NewIndex(ctx, src, IndexOptions{
		Workers:      opts.Workers,
		FetchTimeout: opts.FetchTimeout,
		Logger:       opts.Logger,
	})
	defer ix.Close()
	res, err := Solve(ctx, m, ix, opts)
	if res != nil {
		res.Stats.Fetched = ix.Fetched()
	}
	return res, err
}

// Solve runs the solver against an existing Provider.
func Solve(ctx context.Context, m Manifest, p Provider, opts Options) (*Result, error) {
	opts = opts.WithDefaults()
	opts.rootName = cmp.Or(m.Name, DefaultRootName)
	runID := uuid.NewString()
	logger := opts.Logger.With("run", runID[:8])
	opts.Logger = logger

	for _, plat := range opts.Platforms {
		if err := gemerrors.ValidatePlatform(plat); err != nil {
			return nil, err
		}
	}
	root, err := rootDependencies(m, opts.Overrides, logger)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Resolver().OnResolveStart(ctx, runID, len(root))
	names := make([]string, len(root))
	for i, d := range root {
		names[i] = d.Name
	}
	p.Prefetch(names...)

	s := newSolver(ctx, p, root, opts)
	decisions, err := s.solve()
	s.stats.Packages = len(s.packages)
	observability.Resolver().OnResolveComplete(ctx, runID, len(decisions), s.stats.Steps, time.Since(start), err)

	if err != nil {
		var se *SolveError
		if errors.As(err, &se) {
			se.name = opts.rootName
			logger.Debug("no solution", "steps", s.stats.Steps, "conflicts", s.stats.Conflicts)
			return nil, gemerrors.Wrap(gemerrors.ErrCodeNoSolution, se, "version solving failed")
		}
		return nil, err
	}

	logger.Debug("solved", "gems", len(decisions), "steps", s.stats.Steps,
		"conflicts", s.stats.Conflicts, "took", time.Since(start).Round(time.Millisecond))
	return &Result{
		RunID: runID,
		Gems:  s.output(m, decisions),
		Stats: s.stats,
	}, nil
}

// rootDependencies parses the manifest and folds overrides into it.
// Duplicate declarations stay separate so a contradiction between them
// shows up in the failure explanation.
func rootDependencies(m Manifest, overrides map[string]gemver.Requirement, logger *log.Logger) ([]Dependency, error) {
	out := make([]Dependency, 0, len(m.Gems))
	for _, g := range m.Gems {
		if err := gemerrors.ValidateGemName(g.Name); err != nil {
			return nil, err
		}
		req, err := gemver.ParseRequirement(g.Requirement)
		if err != nil {
			return nil, gemerrors.Wrap(gemerrors.ErrCodeInvalidRequirement, err, "gem %s", g.Name)
		}
		if o, ok := overrides[g.Name]; ok {
			if merged, ok := gemver.Intersect(req, o); ok {
				req = merged
			} else {
				logger.Debug("override contradicts manifest, dropping", "gem", g.Name, "manifest", req.String(), "override", o.String())
			}
		}
		out = append(out, Dependency{Name: g.Name, Requirement: req})
	}
	return out, nil
}

// output lists the chosen build of every decided gem for every platform,
// sorted by name then platform.
func (s *solver) output(m Manifest, decisions map[string]gemver.Version) []ResolvedGem {
	groups := make(map[string][]string)
	sources := make(map[string]string)
	for _, g := range m.Gems {
		for _, grp := range g.Groups {
			if !slices.Contains(groups[g.Name], grp) {
				groups[g.Name] = append(groups[g.Name], grp)
			}
		}
		if g.Source != "" {
			sources[g.Name] = g.Source
		}
	}

	var out []ResolvedGem
	seen := make(map[string]bool)
	for name, v := range decisions {
		pv := s.packages[name]
		rel := pv.releases[pv.index(v)]
		for _, c := range rel.variants {
			gem := ResolvedGem{
				Name:     name,
				Version:  c.Version.String(),
				Platform: c.Platform,
				Groups:   slices.Sorted(slices.Values(groups[name])),
				Source:   sources[name],
			}
			if seen[gem.Key()] {
				continue
			}
			seen[gem.Key()] = true
			if !c.RequiredRuby.IsAny() {
				gem.RequiredRuby = c.RequiredRuby.String()
			}
			for _, d := range c.Dependencies {
				if _, ok := decisions[d.Name]; ok {
					gem.Dependencies = append(gem.Dependencies, ResolvedDependency{Name: d.Name, Requirement: d.Requirement.String()})
				}
			}
			slices.SortFunc(gem.Dependencies, func(a, b ResolvedDependency) int {
				return cmp.Compare(a.Name, b.Name)
			})
			out = append(out, gem)
		}
	}
	slices.SortFunc(out, func(a, b ResolvedGem) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Platform, b.Platform))
	})
	return out
}
