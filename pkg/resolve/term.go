package resolve

import (
	"github.com/matzehuels/gemlock/pkg/gemver"
)

// relation describes how the versions allowed by one term relate to another.
type relation int

const (
	relSubset      relation = iota // every assignment satisfying a also satisfies b
	relDisjoint                    // no assignment satisfies both
	relOverlapping                 // neither of the above
)

// Term asserts that a package is selected at a version in Set (positive)
// or is not selected at any version in Set (negative). A negative term is
// also satisfied when the package is not selected at all.
type Term struct {
	Name     string
	Positive bool
	Set      gemver.Set
	// Label is the requirement as written, used for display while Set is
	// the one it was parsed into.
	Label string
}

func positiveTerm(name string, set gemver.Set) Term {
	return Term{Name: name, Positive: true, Set: set}
}

func negativeTerm(name string, set gemver.Set) Term {
	return Term{Name: name, Set: set}
}

// Inverse returns the term allowing exactly what t forbids.
func (t Term) Inverse() Term {
	return Term{Name: t.Name, Positive: !t.Positive, Set: t.Set, Label: t.Label}
}

// effective returns the versions a term allows.
func (t Term) effective() gemver.Set {
	if t.Positive {
		return t.Set
	}
	return t.Set.Complement()
}

// relation computes how t relates to o. Both must name the same package.
func (t Term) relation(o Term) relation {
	a, b := t.effective(), o.effective()
	switch {
	case !t.Positive && o.Positive:
		// "not foo" also holds when foo is absent, so it is never a subset
		// of a positive term.
		if a.Disjoint(b) {
			return relDisjoint
		}
		return relOverlapping
	case !t.Positive && !o.Positive:
		// Both hold when the package is absent, so they are never disjoint.
		if a.Subset(b) {
			return relSubset
		}
		return relOverlapping
	default:
		if a.Subset(b) {
			return relSubset
		}
		if a.Disjoint(b) {
			return relDisjoint
		}
		return relOverlapping
	}
}

// satisfies reports whether t implies o.
func (t Term) satisfies(o Term) bool {
	return t.relation(o) == relSubset
}

// intersect returns the term allowing what both t and o allow. The
// boolean is false when that is nothing.
func (t Term) intersect(o Term) (Term, bool) {
	switch {
	case t.Positive != o.Positive:
		pos, neg := t, o
		if !t.Positive {
			pos, neg = o, t
		}
		return nonEmpty(t.Name, pos.Set.Difference(neg.Set), true)
	case t.Positive:
		return nonEmpty(t.Name, t.Set.Intersect(o.Set), true)
	default:
		return nonEmpty(t.Name, t.Set.Union(o.Set), false)
	}
}

// difference returns the term allowing what t allows and o does not.
func (t Term) difference(o Term) (Term, bool) {
	return t.intersect(o.Inverse())
}

func nonEmpty(name string, set gemver.Set, positive bool) (Term, bool) {
	if set.IsEmpty() {
		return Term{}, false
	}
	return Term{Name: name, Positive: positive, Set: set}, true
}

// constraint renders the set, preferring the label when present.
func (t Term) constraint() string {
	if t.Label != "" {
		return t.Label
	}
	return t.Set.String()
}

func (t Term) String() string {
	s := t.Name
	if !t.Set.IsAny() {
		s += " " + t.constraint()
	}
	if !t.Positive {
		return "not " + s
	}
	return s
}
