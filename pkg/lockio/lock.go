package lockio

import (
	"cmp"
	"slices"

	"github.com/matzehuels/gemlock/pkg/gemver"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

// Format is the lock file format written by this package.
const Format = 1

// Lock is the content of a lock file.
type Lock struct {
	Format    int                   `json:"format"`
	RunID     string                `json:"run_id,omitempty"`
	Platforms []string              `json:"platforms,omitempty"`
	Ruby      string                `json:"ruby,omitempty"`
	Gems      []resolve.ResolvedGem `json:"gems"`
}

// FromResult builds a lock from a successful resolution.
func FromResult(res *resolve.Result, platforms []string, ruby string) *Lock {
	return &Lock{
		Format:    Format,
		RunID:     res.RunID,
		Platforms: slices.Clone(platforms),
		Ruby:      ruby,
		Gems:      slices.Clone(res.Gems),
	}
}

// Locked returns the locked version of every gem, the input for
// conservative resolution and update overrides.
func (l *Lock) Locked() (map[string]gemver.Version, error) {
	return resolve.LockedVersions(l.Gems)
}

// Find returns the builds of the named gem.
func (l *Lock) Find(name string) []resolve.ResolvedGem {
	var out []resolve.ResolvedGem
	for _, g := range l.Gems {
		if g.Name == name {
			out = append(out, g)
		}
	}
	return out
}

// Dependents returns the names of locked gems that depend on name, sorted.
func (l *Lock) Dependents(name string) []string {
	var out []string
	for _, g := range l.Gems {
		for _, d := range g.Dependencies {
			if d.Name == name && !slices.Contains(out, g.Name) {
				out = append(out, g.Name)
			}
		}
	}
	slices.Sort(out)
	return out
}

func sortGems(gems []resolve.ResolvedGem) {
	slices.SortFunc(gems, func(a, b resolve.ResolvedGem) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Platform, b.Platform))
	})
}
