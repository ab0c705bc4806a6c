package resolve

import (
	"strings"
)

// causeKind records why an incompatibility holds.
type causeKind int

const (
	causeRoot        causeKind = iota // the manifest must be selected
	causeDependency                   // a version depends on a requirement
	causeNoVersions                   // no viable version matches a term
	causeUnavailable                  // metadata could not be fetched
	causeConflict                     // derived from two other incompatibilities
	causeOverride                     // an override excludes the other versions
)

// Incompatibility is a set of terms that must not all hold at once.
type Incompatibility struct {
	Terms []Term

	kind causeKind
	// conflict and other are the parents of a derived incompatibility.
	conflict, other *Incompatibility
	// err is the fetch failure behind causeUnavailable.
	err error
	// notFound marks causeNoVersions for a gem the registry does not know.
	notFound bool
	// pin is the override requirement behind causeOverride.
	pin string
}

// newIncompatibility builds an incompatibility, dropping the always
// satisfied root term from derived ones and coalescing terms that name
// the same package.
func newIncompatibility(terms []Term, kind causeKind) *Incompatibility {
	if len(terms) != 1 && kind == causeConflict {
		kept := terms[:0:0]
		for _, t := range terms {
			if t.Positive && t.Name == rootPackage {
				continue
			}
			kept = append(kept, t)
		}
		terms = kept
	}

	if len(terms) == 1 || (len(terms) == 2 && terms[0].Name != terms[1].Name) {
		return &Incompatibility{Terms: terms, kind: kind}
	}

	var order []string
	byName := make(map[string]Term, len(terms))
	for _, t := range terms {
		prev, ok := byName[t.Name]
		if !ok {
			order = append(order, t.Name)
			byName[t.Name] = t
			continue
		}
		if merged, ok := prev.intersect(t); ok {
			byName[t.Name] = merged
		}
	}

	merged := make([]Term, 0, len(order))
	for _, name := range order {
		merged = append(merged, byName[name])
	}
	return &Incompatibility{Terms: merged, kind: kind}
}

func derived(terms []Term, conflict, other *Incompatibility) *Incompatibility {
	inc := newIncompatibility(terms, causeConflict)
	inc.conflict, inc.other = conflict, other
	return inc
}

// isFailure reports whether the incompatibility proves there is no
// solution: it is empty or forbids only the root.
func (inc *Incompatibility) isFailure() bool {
	return len(inc.Terms) == 0 ||
		(len(inc.Terms) == 1 && inc.Terms[0].Name == rootPackage)
}

func (inc *Incompatibility) derivedFrom() bool { return inc.kind == causeConflict }

// single returns the only term matching positive, if exactly one does.
func (inc *Incompatibility) single(positive bool) (Term, bool) {
	var found Term
	n := 0
	for _, t := range inc.Terms {
		if t.Positive == positive {
			found = t
			n++
		}
	}
	return found, n == 1
}

func (inc *Incompatibility) String() string {
	return describer{root: DefaultRootName}.describe(inc)
}

// describer renders incompatibilities as English for failure reports.
type describer struct {
	root string
}

func (d describer) name(t Term) string {
	if t.Name == rootPackage {
		return d.root
	}
	return t.Name
}

// terse renders a term without its polarity. With allowEvery, a term on
// every version is written as "every version of foo".
func (d describer) terse(t Term, allowEvery bool) string {
	if t.Name == rootPackage {
		return d.root
	}
	if t.Set.IsAny() {
		if allowEvery {
			return "every version of " + t.Name
		}
		return t.Name
	}
	return t.Name + " " + t.constraint()
}

func (d describer) terseAll(terms []Term, positive bool) []string {
	var out []string
	for _, t := range terms {
		if t.Positive == positive {
			out = append(out, d.terse(t, false))
		}
	}
	return out
}

func (d describer) describe(inc *Incompatibility) string {
	switch inc.kind {
	case causeDependency:
		return d.terse(inc.Terms[0], true) + " depends on " + d.terse(inc.Terms[1], false)
	case causeNoVersions:
		t := inc.Terms[0]
		if inc.notFound {
			return t.Name + " could not be found"
		}
		if t.Set.IsAny() {
			return "no versions of " + t.Name + " are available"
		}
		return "no versions of " + t.Name + " match " + t.constraint()
	case causeUnavailable:
		msg := d.name(inc.Terms[0]) + " is unavailable"
		if inc.err != nil {
			msg += " (" + inc.err.Error() + ")"
		}
		return msg
	case causeOverride:
		return inc.Terms[0].Name + " is pinned to " + inc.pin
	case causeRoot:
		return d.root + " is required"
	}

	if inc.isFailure() {
		return "version solving failed"
	}

	if len(inc.Terms) == 1 {
		t := inc.Terms[0]
		verdict := "forbidden"
		if !t.Positive {
			verdict = "required"
		}
		return d.terse(t, false) + " is " + verdict
	}

	if len(inc.Terms) == 2 && inc.Terms[0].Positive == inc.Terms[1].Positive {
		a, b := d.terse(inc.Terms[0], false), d.terse(inc.Terms[1], false)
		if inc.Terms[0].Positive {
			return a + " is incompatible with " + b
		}
		return "either " + a + " or " + b
	}

	pos := d.terseAll(inc.Terms, true)
	neg := d.terseAll(inc.Terms, false)
	switch {
	case len(pos) > 0 && len(neg) > 0:
		if t, ok := inc.single(true); ok {
			return d.terse(t, true) + " requires " + strings.Join(neg, " or ")
		}
		return "if " + strings.Join(pos, " and ") + " then " + strings.Join(neg, " or ")
	case len(pos) > 0:
		return "one of " + strings.Join(pos, " or ") + " must be false"
	default:
		return "one of " + strings.Join(neg, " or ") + " must be true"
	}
}
