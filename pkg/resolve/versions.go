package resolve

import (
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gemlock/pkg/gemver"
	"github.com/matzehuels/gemlock/pkg/platform"
)

// release is one version of a package as the solver sees it: the variant
// chosen for each target platform and the merged dependency list.
type release struct {
	version  gemver.Version
	deps     []Dependency
	variants []Candidate // one per target platform, in platform order
}

// packageVersions is the viable versions of one package, oldest first.
type packageVersions struct {
	name     string
	releases []release
	notFound bool
}

// allowed returns the versions in set, newest first.
func (pv *packageVersions) allowed(set gemver.Set) []gemver.Version {
	var out []gemver.Version
	for i := len(pv.releases) - 1; i >= 0; i-- {
		if v := pv.releases[i].version; set.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

func (pv *packageVersions) count(set gemver.Set) int {
	n := 0
	for _, r := range pv.releases {
		if set.Contains(r.version) {
			n++
		}
	}
	return n
}

func (pv *packageVersions) index(v gemver.Version) int {
	for i, r := range pv.releases {
		if r.version.Equal(v) {
			return i
		}
	}
	return -1
}

// filter describes which candidates may be used.
type filter struct {
	platforms   []string
	prerelease  bool
	rubyVersion gemver.Version
}

// buildVersions groups candidates by version and keeps the versions that
// have a usable variant for every platform.
func buildVersions(name string, cands []Candidate, f filter, logger *log.Logger) *packageVersions {
	byVersion := make(map[string][]Candidate)
	var order []gemver.Version
	for _, c := range cands {
		if c.Prerelease() && !f.prerelease {
			continue
		}
		if !f.rubyVersion.IsZero() && !c.RequiredRuby.Match(f.rubyVersion) {
			continue
		}
		key := c.Version.Canonical()
		if _, ok := byVersion[key]; !ok {
			order = append(order, c.Version)
		}
		byVersion[key] = append(byVersion[key], c)
	}
	slices.SortFunc(order, gemver.Compare)

	pv := &packageVersions{name: name}
	for _, v := range order {
		variants, ok := selectVariants(byVersion[v.Canonical()], f.platforms)
		if !ok {
			logger.Debug("no variant for every platform", "gem", name, "version", v)
			continue
		}
		pv.releases = append(pv.releases, release{
			version:  v,
			deps:     mergeDependencies(variants),
			variants: variants,
		})
	}

	return pv
}

// selectVariants picks the most specific variant for each platform.
func selectVariants(cands []Candidate, platforms []string) ([]Candidate, bool) {
	out := make([]Candidate, 0, len(platforms))
	for _, target := range platforms {
		best, bestSpec := -1, platform.None
		for i, c := range cands {
			spec := platform.Match(c.Platform, target)
			if spec > bestSpec || (spec == bestSpec && spec != platform.None && c.Platform < cands[best].Platform) {
				best, bestSpec = i, spec
			}
		}
		if best < 0 {
			return nil, false
		}
		out = append(out, cands[best])
	}
	return out, true
}

// mergeDependencies intersects the requirements of all variants, per
// dependency name, keeping first-seen order.
func mergeDependencies(variants []Candidate) []Dependency {
	var out []Dependency
	seen := make(map[string]int)
	for i, c := range variants {
		if i > 0 && c.Platform == variants[i-1].Platform {
			continue
		}
		for _, d := range c.Dependencies {
			j, ok := seen[d.Name]
			if !ok {
				seen[d.Name] = len(out)
				out = append(out, d)
				continue
			}
			if out[j].Requirement.String() == d.Requirement.String() {
				continue
			}
			out[j].Requirement = gemver.NewRequirement(append(out[j].Requirement.Constraints(), d.Requirement.Constraints()...)...)
		}
	}
	return out
}

// normalizePlatforms trims, dedupes and defaults the platform list.
func normalizePlatforms(ps []string) []string {
	var out []string
	for _, p := range ps {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		out = []string{platform.Detect()}
	}
	return out
}
