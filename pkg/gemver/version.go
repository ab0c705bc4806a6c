package gemver

import (
	"regexp"
	"strings"

	"github.com/matzehuels/gemlock/pkg/errors"
)

// versionPattern matches the version strings RubyGems accepts.
var versionPattern = regexp.MustCompile(`^[0-9]+(\.[0-9a-zA-Z]+)*(-[0-9A-Za-z-]+(\.[0-9A-Za-z-]+)*)?$`)

// segmentPattern splits a canonical version into numeric and alphabetic runs.
var segmentPattern = regexp.MustCompile(`[0-9]+|[a-zA-Z]+`)

// segment is one component of a version. Numeric segments keep their digits
// with leading zeros stripped so arbitrarily large numbers compare correctly.
type segment struct {
	text    string
	numeric bool
}

var zeroSegment = segment{text: "0", numeric: true}

func (s segment) compare(o segment) int {
	switch {
	case s.numeric && !o.numeric:
		return 1
	case !s.numeric && o.numeric:
		return -1
	case s.numeric:
		if len(s.text) != len(o.text) {
			if len(s.text) < len(o.text) {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(s.text, o.text)
}

// Version is a parsed RubyGems version number.
//
// Versions are immutable values. The zero Version is not valid; obtain
// versions from [Parse] or [MustParse].
type Version struct {
	raw  string
	segs []segment
}

// Parse parses a version string such as "1.2.3", "2.0.0.rc1" or
// "1.0.0-beta". A hyphen is shorthand for ".pre." so "1.0.0-beta" orders
// exactly like "1.0.0.pre.beta".
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if !versionPattern.MatchString(s) {
		return Version{}, errors.New(errors.ErrCodeInvalidVersion, "malformed version number %q", s)
	}

	canonical := strings.ReplaceAll(s, "-", ".pre.")
	parts := segmentPattern.FindAllString(canonical, -1)
	segs := make([]segment, len(parts))
	for i, p := range parts {
		if p[0] >= '0' && p[0] <= '9' {
			p = strings.TrimLeft(p, "0")
			if p == "" {
				p = "0"
			}
			segs[i] = segment{text: p, numeric: true}
		} else {
			segs[i] = segment{text: p}
		}
	}
	return Version{raw: s, segs: segs}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as it was written.
func (v Version) String() string {
	return v.raw
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool {
	return len(v.segs) == 0
}

// Compare returns -1, 0 or 1 depending on whether v sorts before, equal to
// or after o. Missing trailing segments count as zero, and an alphabetic
// segment sorts before a numeric one at the same position, which places
// prereleases ahead of their release.
func (v Version) Compare(o Version) int {
	n := max(len(v.segs), len(o.segs))
	for i := 0; i < n; i++ {
		a, b := zeroSegment, zeroSegment
		if i < len(v.segs) {
			a = v.segs[i]
		}
		if i < len(o.segs) {
			b = o.segs[i]
		}
		if c := a.compare(b); c != 0 {
			return c
		}
	}
	return 0
}

// Equal reports whether v and o denote the same version ("1.0" equals "1.0.0").
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// IsPrerelease reports whether the version contains an alphabetic segment.
func (v Version) IsPrerelease() bool {
	for _, s := range v.segs {
		if !s.numeric {
			return true
		}
	}
	return false
}

// Release returns the version with its prerelease part removed, so
// "1.2.0.rc1" becomes "1.2.0". Release versions are returned unchanged.
func (v Version) Release() Version {
	if !v.IsPrerelease() {
		return v
	}
	var nums []segment
	for _, s := range v.segs {
		if !s.numeric {
			break
		}
		nums = append(nums, s)
	}
	return fromSegments(nums)
}

// Bump returns the version used as the exclusive upper bound of "~> v":
// prerelease segments are dropped, then the last segment is dropped when
// more than one remains, then the new last segment is incremented.
// "2.3.1" bumps to "2.4", "2.3" to "3" and "2" to "3".
func (v Version) Bump() Version {
	var nums []segment
	for _, s := range v.segs {
		if !s.numeric {
			break
		}
		nums = append(nums, s)
	}
	if len(nums) > 1 {
		nums = nums[:len(nums)-1]
	}
	if len(nums) == 0 {
		nums = []segment{zeroSegment}
	}
	last := len(nums) - 1
	nums[last] = segment{text: incrementDigits(nums[last].text), numeric: true}
	return fromSegments(nums)
}

// prereleaseFloor returns a bound that sorts below every prerelease of
// v and above everything older. It prints as v.
func (v Version) prereleaseFloor() Version {
	segs := make([]segment, 0, len(v.segs)+1)
	for _, s := range v.segs {
		if !s.numeric {
			break
		}
		segs = append(segs, s)
	}
	segs = append(segs, segment{})
	return Version{raw: v.Release().raw, segs: segs}
}

// Prefix returns a version made of the first n numeric segments of v,
// padding with zeros when v is shorter. Prefix(2) of "3.1.4" is "3.1".
func (v Version) Prefix(n int) Version {
	nums := make([]segment, 0, n)
	for _, s := range v.segs {
		if len(nums) == n || !s.numeric {
			break
		}
		nums = append(nums, s)
	}
	for len(nums) < n {
		nums = append(nums, zeroSegment)
	}
	return fromSegments(nums)
}

// Canonical returns a normalized string with trailing zero segments
// removed. Versions that compare equal have the same canonical form.
func (v Version) Canonical() string {
	segs := v.segs
	for len(segs) > 1 && segs[len(segs)-1] == zeroSegment {
		segs = segs[:len(segs)-1]
	}
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.text
	}
	return strings.Join(parts, ".")
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func fromSegments(segs []segment) Version {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.text
	}
	return Version{raw: strings.Join(parts, "."), segs: segs}
}

// incrementDigits adds one to a decimal digit string.
func incrementDigits(d string) string {
	b := []byte(d)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}

// Compare is a convenience wrapper around a.Compare(b) for use with
// slices.SortFunc.
func Compare(a, b Version) int { return a.Compare(b) }
