package resolve

import (
	"fmt"

	"github.com/matzehuels/gemlock/pkg/gemver"
)

// assignment is one entry in the partial solution: a decision when cause
// is nil, otherwise a term derived from cause.
type assignment struct {
	Term
	level int
	index int
	cause *Incompatibility
}

func (a assignment) isDecision() bool { return a.cause == nil }

// partialSolution is the solver's ordered log of decisions and
// derivations. Backtracking truncates the log.
type partialSolution struct {
	assignments []assignment
	decisions   map[string]gemver.Version
	positive    map[string]Term
	negative    map[string]Term
}

func newPartialSolution() *partialSolution {
	return &partialSolution{
		decisions: make(map[string]gemver.Version),
		positive:  make(map[string]Term),
		negative:  make(map[string]Term),
	}
}

func (ps *partialSolution) level() int { return len(ps.decisions) }

// decide selects version for name and opens a new decision level.
func (ps *partialSolution) decide(name string, v gemver.Version) {
	ps.decisions[name] = v
	ps.assign(assignment{
		Term:  positiveTerm(name, gemver.Exactly(v)),
		level: ps.level(),
		index: len(ps.assignments),
	})
}

func (ps *partialSolution) derive(t Term, cause *Incompatibility) {
	ps.assign(assignment{Term: t, level: ps.level(), index: len(ps.assignments), cause: cause})
}

func (ps *partialSolution) assign(a assignment) {
	ps.assignments = append(ps.assignments, a)
	ps.register(a.Term)
}

// register folds t into the per-package summaries.
func (ps *partialSolution) register(t Term) {
	if pos, ok := ps.positive[t.Name]; ok {
		if merged, ok := pos.intersect(t); ok {
			ps.positive[t.Name] = merged
		}
		return
	}
	merged := t
	if neg, ok := ps.negative[t.Name]; ok {
		if m, ok := neg.intersect(t); ok {
			merged = m
		}
	}
	if merged.Positive {
		delete(ps.negative, t.Name)
		ps.positive[t.Name] = merged
		return
	}
	ps.negative[t.Name] = merged
}

// backtrack removes every assignment made after decision level lvl.
func (ps *partialSolution) backtrack(lvl int) {
	touched := make(map[string]bool)
	for len(ps.assignments) > 0 {
		last := ps.assignments[len(ps.assignments)-1]
		if last.level <= lvl {
			break
		}
		ps.assignments = ps.assignments[:len(ps.assignments)-1]
		touched[last.Name] = true
		if last.isDecision() {
			delete(ps.decisions, last.Name)
		}
	}
	for name := range touched {
		delete(ps.positive, name)
		delete(ps.negative, name)
	}
	for _, a := range ps.assignments {
		if touched[a.Name] {
			ps.register(a.Term)
		}
	}
}

// unsatisfied returns the positive terms of packages not yet decided.
func (ps *partialSolution) unsatisfied() []Term {
	var out []Term
	for name, t := range ps.positive {
		if _, ok := ps.decisions[name]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func (ps *partialSolution) relation(t Term) relation {
	if pos, ok := ps.positive[t.Name]; ok {
		return pos.relation(t)
	}
	if neg, ok := ps.negative[t.Name]; ok {
		return neg.relation(t)
	}
	return relOverlapping
}

func (ps *partialSolution) satisfies(t Term) bool {
	return ps.relation(t) == relSubset
}

// satisfier returns the earliest assignment after which the solution
// satisfies t.
func (ps *partialSolution) satisfier(t Term) (assignment, error) {
	var acc Term
	have := false
	for _, a := range ps.assignments {
		if a.Name != t.Name {
			continue
		}
		if !have {
			acc, have = a.Term, true
		} else if merged, ok := acc.intersect(a.Term); ok {
			acc = merged
		}
		if acc.satisfies(t) {
			return a, nil
		}
	}
	return assignment{}, fmt.Errorf("no assignment satisfies %s", t)
}
