package resolve

import (
	"slices"

	"github.com/matzehuels/gemlock/pkg/gemver"
)

// Preference picks which allowed version the solver tries first.
type Preference interface {
	// Pick returns one of allowed, which is non-empty and sorted newest first.
	Pick(name string, allowed []gemver.Version) gemver.Version
}

// Newest always picks the newest allowed version.
type Newest struct{}

func (Newest) Pick(_ string, allowed []gemver.Version) gemver.Version { return allowed[0] }

// Conservative stays as close as possible to a previous resolution: the
// locked version if allowed, else the nearest newer, else the nearest older.
// Gems without a locked version get the newest.
type Conservative struct {
	Locked map[string]gemver.Version
}

func (c Conservative) Pick(name string, allowed []gemver.Version) gemver.Version {
	locked, ok := c.Locked[name]
	if !ok {
		return allowed[0]
	}
	// allowed is descending: scan for the smallest version >= locked.
	var newer gemver.Version
	for _, v := range allowed {
		switch cmp := v.Compare(locked); {
		case cmp == 0:
			return v
		case cmp > 0:
			newer = v
		default:
			if !newer.IsZero() {
				return newer
			}
			return v
		}
	}
	return newer
}

// UpdateLevel bounds how far an update may move a locked gem.
type UpdateLevel int

const (
	UpdateMajor UpdateLevel = iota // anything goes
	UpdateMinor                    // stay within the locked major version
	UpdatePatch                    // stay within the locked minor version
)

func (l UpdateLevel) String() string {
	switch l {
	case UpdateMinor:
		return "minor"
	case UpdatePatch:
		return "patch"
	default:
		return "major"
	}
}

// ParseUpdateLevel maps "major", "minor" and "patch" to a level.
func ParseUpdateLevel(s string) (UpdateLevel, bool) {
	switch s {
	case "", "major":
		return UpdateMajor, true
	case "minor":
		return UpdateMinor, true
	case "patch":
		return UpdatePatch, true
	}
	return UpdateMajor, false
}

// Update describes which locked gems may move and how far.
type Update struct {
	Gems   []string    // gems to update
	All    bool        // update every locked gem
	Level  UpdateLevel // how far updated gems may move
	Strict bool        // never move an updated gem below its locked version
	Direct []string    // gems the manifest declares; only these are pinned
}

// UpdateOverrides turns a previous resolution into overrides for the next
// run. With nothing to update it returns nil: the locked versions then only
// serve as preferences, so a changed manifest can still move any gem.
// Otherwise declared gems that are not being updated are pinned to their
// locked version and updated gems are bounded by the update level.
func UpdateOverrides(locked map[string]gemver.Version, u Update) map[string]gemver.Requirement {
	if !u.All && len(u.Gems) == 0 {
		return nil
	}
	out := make(map[string]gemver.Requirement, len(locked))
	for name, v := range locked {
		if !u.All && !slices.Contains(u.Gems, name) {
			if slices.Contains(u.Direct, name) {
				out[name] = gemver.NewRequirement(gemver.Constraint{Op: gemver.OpEqual, Version: v})
			}
			continue
		}
		var cs []gemver.Constraint
		switch u.Level {
		case UpdateMinor:
			cs = append(cs, gemver.Constraint{Op: gemver.OpPessimistic, Version: v.Prefix(2)})
		case UpdatePatch:
			cs = append(cs, gemver.Constraint{Op: gemver.OpPessimistic, Version: v.Prefix(3)})
		}
		if u.Strict {
			cs = append(cs, gemver.Constraint{Op: gemver.OpGreaterEq, Version: v})
		}
		if len(cs) > 0 {
			out[name] = gemver.NewRequirement(cs...)
		}
	}
	return out
}

// Preferred returns the locked versions the next run should stay close to:
// every locked gem except the ones being updated.
func (u Update) Preferred(locked map[string]gemver.Version) map[string]gemver.Version {
	out := make(map[string]gemver.Version, len(locked))
	if u.All {
		return out
	}
	for name, v := range locked {
		if !slices.Contains(u.Gems, name) {
			out[name] = v
		}
	}
	return out
}

// LockedVersions indexes a previous resolution by gem name.
func LockedVersions(gems []ResolvedGem) (map[string]gemver.Version, error) {
	out := make(map[string]gemver.Version, len(gems))
	for _, g := range gems {
		v, err := gemver.Parse(g.Version)
		if err != nil {
			return nil, err
		}
		out[g.Name] = v
	}
	return out, nil
}
