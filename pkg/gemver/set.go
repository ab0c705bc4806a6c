package gemver

import (
	"strings"
)

// bound is one end of an interval. A bound with a zero version is
// unbounded (negative infinity for a lower bound, positive infinity for an
// upper bound).
type bound struct {
	v         Version
	inclusive bool
}

func (b bound) unbounded() bool { return b.v.IsZero() }

// interval is a contiguous range of versions between lo and hi.
type interval struct {
	lo, hi bound
}

func (iv interval) empty() bool {
	if iv.lo.unbounded() || iv.hi.unbounded() {
		return false
	}
	c := iv.lo.v.Compare(iv.hi.v)
	return c > 0 || (c == 0 && !(iv.lo.inclusive && iv.hi.inclusive))
}

func (iv interval) contains(v Version) bool {
	if !iv.lo.unbounded() {
		c := v.Compare(iv.lo.v)
		if c < 0 || (c == 0 && !iv.lo.inclusive) {
			return false
		}
	}
	if !iv.hi.unbounded() {
		c := v.Compare(iv.hi.v)
		if c > 0 || (c == 0 && !iv.hi.inclusive) {
			return false
		}
	}
	return true
}

// compareLower orders lower bounds: unbounded first, inclusive before
// exclusive at the same version.
func compareLower(a, b bound) int {
	switch {
	case a.unbounded() && b.unbounded():
		return 0
	case a.unbounded():
		return -1
	case b.unbounded():
		return 1
	}
	if c := a.v.Compare(b.v); c != 0 {
		return c
	}
	switch {
	case a.inclusive == b.inclusive:
		return 0
	case a.inclusive:
		return -1
	default:
		return 1
	}
}

// compareUpper orders upper bounds: exclusive before inclusive at the same
// version, unbounded last.
func compareUpper(a, b bound) int {
	switch {
	case a.unbounded() && b.unbounded():
		return 0
	case a.unbounded():
		return 1
	case b.unbounded():
		return -1
	}
	if c := a.v.Compare(b.v); c != 0 {
		return c
	}
	switch {
	case a.inclusive == b.inclusive:
		return 0
	case a.inclusive:
		return 1
	default:
		return -1
	}
}

// touches reports whether an interval ending at hi and one starting at lo
// overlap or are adjacent with no version between them.
func touches(hi, lo bound) bool {
	if hi.unbounded() || lo.unbounded() {
		return true
	}
	c := hi.v.Compare(lo.v)
	return c > 0 || (c == 0 && (hi.inclusive || lo.inclusive))
}

// Set is a set of versions represented as a sorted union of disjoint,
// non-adjacent intervals. The zero Set is empty.
type Set struct {
	ivs []interval
}

// Any returns the set of all versions.
func Any() Set { return Set{ivs: []interval{{}}} }

// Empty returns the set containing no versions.
func Empty() Set { return Set{} }

// Exactly returns the set containing only v.
func Exactly(v Version) Set {
	return Set{ivs: []interval{{lo: bound{v, true}, hi: bound{v, true}}}}
}

// AtLeast returns the set of versions >= v.
func AtLeast(v Version) Set { return Set{ivs: []interval{{lo: bound{v, true}}}} }

// GreaterThan returns the set of versions > v.
func GreaterThan(v Version) Set { return Set{ivs: []interval{{lo: bound{v, false}}}} }

// AtMost returns the set of versions <= v.
func AtMost(v Version) Set { return Set{ivs: []interval{{hi: bound{v, true}}}} }

// LessThan returns the set of versions < v.
func LessThan(v Version) Set { return Set{ivs: []interval{{hi: bound{v, false}}}} }

// Between returns the half-open set [lo, hi).
func Between(lo, hi Version) Set {
	iv := interval{lo: bound{lo, true}, hi: bound{hi, false}}
	if iv.empty() {
		return Empty()
	}
	return Set{ivs: []interval{iv}}
}

// IsEmpty reports whether the set contains no versions.
func (s Set) IsEmpty() bool { return len(s.ivs) == 0 }

// IsAny reports whether the set contains every version.
func (s Set) IsAny() bool {
	return len(s.ivs) == 1 && s.ivs[0].lo.unbounded() && s.ivs[0].hi.unbounded()
}

// Contains reports whether v is in the set.
func (s Set) Contains(v Version) bool {
	for _, iv := range s.ivs {
		if iv.contains(v) {
			return true
		}
	}
	return false
}

// Intersect returns the versions in both s and o.
func (s Set) Intersect(o Set) Set {
	var out []interval
	i, j := 0, 0
	for i < len(s.ivs) && j < len(o.ivs) {
		a, b := s.ivs[i], o.ivs[j]
		lo := a.lo
		if compareLower(b.lo, a.lo) > 0 {
			lo = b.lo
		}
		hi := a.hi
		if compareUpper(b.hi, a.hi) < 0 {
			hi = b.hi
		}
		if iv := (interval{lo: lo, hi: hi}); !iv.empty() {
			out = append(out, iv)
		}
		if compareUpper(a.hi, b.hi) < 0 {
			i++
		} else {
			j++
		}
	}
	return Set{ivs: out}
}

// Union returns the versions in s or o.
func (s Set) Union(o Set) Set {
	all := make([]interval, 0, len(s.ivs)+len(o.ivs))
	i, j := 0, 0
	for i < len(s.ivs) || j < len(o.ivs) {
		if j >= len(o.ivs) || (i < len(s.ivs) && compareLower(s.ivs[i].lo, o.ivs[j].lo) <= 0) {
			all = append(all, s.ivs[i])
			i++
		} else {
			all = append(all, o.ivs[j])
			j++
		}
	}

	var out []interval
	for _, iv := range all {
		if n := len(out); n > 0 && touches(out[n-1].hi, iv.lo) {
			if compareUpper(iv.hi, out[n-1].hi) > 0 {
				out[n-1].hi = iv.hi
			}
			continue
		}
		out = append(out, iv)
	}
	return Set{ivs: out}
}

// Complement returns every version not in s.
func (s Set) Complement() Set {
	if s.IsEmpty() {
		return Any()
	}
	var out []interval
	lo := bound{}
	first := true
	for _, iv := range s.ivs {
		if !iv.lo.unbounded() {
			gap := interval{hi: bound{iv.lo.v, !iv.lo.inclusive}}
			if !first {
				gap.lo = lo
			}
			if !gap.empty() {
				out = append(out, gap)
			}
		}
		first = false
		if iv.hi.unbounded() {
			return Set{ivs: out}
		}
		lo = bound{iv.hi.v, !iv.hi.inclusive}
	}
	out = append(out, interval{lo: lo})
	return Set{ivs: out}
}

// Difference returns the versions in s but not in o.
func (s Set) Difference(o Set) Set {
	return s.Intersect(o.Complement())
}

// Subset reports whether every version in s is also in o.
func (s Set) Subset(o Set) bool {
	return s.Difference(o).IsEmpty()
}

// Disjoint reports whether s and o have no version in common.
func (s Set) Disjoint(o Set) bool {
	return s.Intersect(o).IsEmpty()
}

// Equal reports whether s and o contain the same versions.
func (s Set) Equal(o Set) bool {
	return s.Subset(o) && o.Subset(s)
}

// String renders the set in requirement syntax. Disjoint pieces are joined
// with " or ".
func (s Set) String() string {
	if s.IsEmpty() {
		return "<none>"
	}
	if s.IsAny() {
		return ">= 0"
	}
	if v, ok := s.excludesOne(); ok {
		return "!= " + v.String()
	}
	parts := make([]string, len(s.ivs))
	for i, iv := range s.ivs {
		parts[i] = iv.String()
	}
	return strings.Join(parts, " or ")
}

// excludesOne detects the shape produced by "!= v".
func (s Set) excludesOne() (Version, bool) {
	if len(s.ivs) != 2 {
		return Version{}, false
	}
	a, b := s.ivs[0], s.ivs[1]
	if !a.lo.unbounded() || !b.hi.unbounded() || a.hi.inclusive || b.lo.inclusive {
		return Version{}, false
	}
	if a.hi.unbounded() || b.lo.unbounded() || !a.hi.v.Equal(b.lo.v) {
		return Version{}, false
	}
	return a.hi.v, true
}

func (iv interval) String() string {
	if !iv.lo.unbounded() && !iv.hi.unbounded() && iv.lo.inclusive && iv.hi.inclusive && iv.lo.v.Equal(iv.hi.v) {
		return "= " + iv.lo.v.String()
	}
	var parts []string
	if !iv.lo.unbounded() {
		op := "> "
		if iv.lo.inclusive {
			op = ">= "
		}
		parts = append(parts, op+iv.lo.v.String())
	}
	if !iv.hi.unbounded() {
		op := "< "
		if iv.hi.inclusive {
			op = "<= "
		}
		parts = append(parts, op+iv.hi.v.String())
	}
	return strings.Join(parts, ", ")
}
