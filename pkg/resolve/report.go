package resolve

import (
	"fmt"
	"strings"
)

// SolveError reports that no set of versions satisfies the manifest. Its
// explanation walks the derivation of the failure from the facts that
// caused it.
type SolveError struct {
	root  *Incompatibility
	name  string
	lines []string
}

// Error implements error.
func (e *SolveError) Error() string {
	return strings.Join(e.Explanation(), "\n")
}

// Explanation returns the derivation, one sentence per line, ending with
// the conclusion that version solving failed. Lines referenced later are
// prefixed with "(n)".
func (e *SolveError) Explanation() []string {
	if e.lines == nil {
		name := e.name
		if name == "" {
			name = DefaultRootName
		}
		e.lines = newReport(e.root, name).write()
	}
	return e.lines
}

// Incompatibility returns the failure incompatibility at the root of the
// derivation.
func (e *SolveError) Incompatibility() *Incompatibility { return e.root }

type reportLine struct {
	text   string
	number int
}

// report renders a derivation graph. Incompatibilities used more than
// once, or far from where they are used, get line numbers so later lines
// can refer back to them.
type report struct {
	d           describer
	root        *Incompatibility
	derivations map[*Incompatibility]int
	numbers     map[*Incompatibility]int
	lines       []reportLine
}

func newReport(root *Incompatibility, name string) *report {
	r := &report{
		d:           describer{root: name},
		root:        root,
		derivations: make(map[*Incompatibility]int),
		numbers:     make(map[*Incompatibility]int),
	}
	r.count(root)
	return r
}

func (r *report) count(inc *Incompatibility) {
	r.derivations[inc]++
	if r.derivations[inc] == 1 && inc.derivedFrom() {
		r.count(inc.conflict)
		r.count(inc.other)
	}
}

func (r *report) write() []string {
	if r.root.derivedFrom() {
		r.visit(r.root, false)
	} else {
		r.emit(r.root, "Because "+r.d.describe(r.root)+", version solving failed.", false)
	}

	width := 0
	if len(r.numbers) > 0 {
		width = len(fmt.Sprintf("(%d) ", len(r.numbers)))
	}
	var out []string
	lastEmpty := false
	for _, l := range r.lines {
		if l.text == "" {
			if !lastEmpty {
				out = append(out, "")
			}
			lastEmpty = true
			continue
		}
		lastEmpty = false
		prefix := strings.Repeat(" ", width)
		if l.number > 0 {
			prefix = fmt.Sprintf("%-*s", width, fmt.Sprintf("(%d)", l.number))
		}
		out = append(out, prefix+l.text)
	}
	return out
}

func (r *report) emit(inc *Incompatibility, text string, numbered bool) {
	if !numbered {
		r.lines = append(r.lines, reportLine{text: text})
		return
	}
	n := len(r.numbers) + 1
	r.numbers[inc] = n
	r.lines = append(r.lines, reportLine{text: text, number: n})
}

func (r *report) conclusion(inc *Incompatibility) string {
	if inc.isFailure() {
		return "version solving failed"
	}
	return r.d.describe(inc)
}

func (r *report) visit(inc *Incompatibility, conclusion bool) {
	numbered := conclusion || r.derivations[inc] > 1
	conjunction := "And"
	if conclusion || inc == r.root {
		conjunction = "So,"
	}
	text := r.conclusion(inc)
	conflict, other := inc.conflict, inc.other

	switch {
	case conflict.derivedFrom() && other.derivedFrom():
		cl, cok := r.numbers[conflict]
		ol, ook := r.numbers[other]
		switch {
		case cok && ook:
			r.emit(inc, "Because "+r.and(conflict, other, cl, ol)+", "+text+".", numbered)
		case cok || ook:
			with, without, line := conflict, other, cl
			if !cok {
				with, without, line = other, conflict, ol
			}
			r.visit(without, false)
			r.emit(inc, fmt.Sprintf("%s because %s (%d), %s.", conjunction, r.d.describe(with), line, text), numbered)
		default:
			singleConflict := !conflict.conflict.derivedFrom() && !conflict.other.derivedFrom()
			singleOther := !other.conflict.derivedFrom() && !other.other.derivedFrom()
			if singleConflict || singleOther {
				first, second := other, conflict
				if singleOther {
					first, second = conflict, other
				}
				r.visit(first, false)
				r.visit(second, false)
				r.emit(inc, "Thus, "+text+".", numbered)
			} else {
				r.visit(conflict, true)
				r.lines = append(r.lines, reportLine{})
				r.visit(other, false)
				r.emit(inc, fmt.Sprintf("%s because %s (%d), %s.", conjunction, r.d.describe(conflict), r.numbers[conflict], text), numbered)
			}
		}

	case conflict.derivedFrom() || other.derivedFrom():
		der, ext := conflict, other
		if !conflict.derivedFrom() {
			der, ext = other, conflict
		}
		if line, ok := r.numbers[der]; ok {
			r.emit(inc, "Because "+r.and(ext, der, 0, line)+", "+text+".", numbered)
		} else if r.collapsible(der) {
			inner, innerExt := der.conflict, der.other
			if !inner.derivedFrom() {
				inner, innerExt = der.other, der.conflict
			}
			r.visit(inner, false)
			r.emit(inc, conjunction+" because "+r.and(innerExt, ext, 0, 0)+", "+text+".", numbered)
		} else {
			r.visit(der, false)
			r.emit(inc, conjunction+" because "+r.d.describe(ext)+", "+text+".", numbered)
		}

	default:
		r.emit(inc, "Because "+r.and(conflict, other, 0, 0)+", "+text+".", numbered)
	}
}

// collapsible reports whether a derived incompatibility with one derived
// and one external parent can be folded into the sentence that uses it.
func (r *report) collapsible(inc *Incompatibility) bool {
	if r.derivations[inc] > 1 {
		return false
	}
	c, o := inc.conflict, inc.other
	if c.derivedFrom() == o.derivedFrom() {
		return false
	}
	inner := c
	if !c.derivedFrom() {
		inner = o
	}
	_, numbered := r.numbers[inner]
	return !numbered
}

// and joins two incompatibilities into one clause, using "depends on
// both" and "which depends on" forms where they read better. Line numbers
// of zero are omitted.
func (r *report) and(a, b *Incompatibility, aLine, bLine int) string {
	if s, ok := r.requiresBoth(a, b, aLine, bLine); ok {
		return s
	}
	if s, ok := r.requiresThrough(a, b, aLine, bLine); ok {
		return s
	}
	if s, ok := r.requiresForbidden(a, b, aLine, bLine); ok {
		return s
	}
	return r.d.describe(a) + lineRef(aLine) + " and " + r.d.describe(b) + lineRef(bLine)
}

func lineRef(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(" (%d)", n)
}

func verb(inc *Incompatibility) string {
	if inc.kind == causeDependency {
		return "depends on"
	}
	return "requires"
}

func (r *report) requiresBoth(a, b *Incompatibility, aLine, bLine int) (string, bool) {
	if len(a.Terms) == 1 || len(b.Terms) == 1 {
		return "", false
	}
	ap, ok := a.single(true)
	if !ok {
		return "", false
	}
	bp, ok := b.single(true)
	if !ok || ap.Name != bp.Name {
		return "", false
	}
	v := "requires"
	if a.kind == causeDependency && b.kind == causeDependency {
		v = "depends on"
	}
	return fmt.Sprintf("%s %s both %s%s and %s%s",
		r.d.terse(ap, true), v,
		strings.Join(r.d.terseAll(a.Terms, false), " or "), lineRef(aLine),
		strings.Join(r.d.terseAll(b.Terms, false), " or "), lineRef(bLine)), true
}

func (r *report) requiresThrough(a, b *Incompatibility, aLine, bLine int) (string, bool) {
	if len(a.Terms) == 1 || len(b.Terms) == 1 {
		return "", false
	}
	an, aHasNeg := a.single(false)
	bn, bHasNeg := b.single(false)
	if !aHasNeg && !bHasNeg {
		return "", false
	}
	ap, aHasPos := a.single(true)
	bp, bHasPos := b.single(true)

	var prior, latter *Incompatibility
	var priorNeg Term
	var priorLine, latterLine int
	switch {
	case aHasNeg && bHasPos && an.Name == bp.Name && an.Inverse().satisfies(bp):
		prior, priorNeg, priorLine, latter, latterLine = a, an, aLine, b, bLine
	case bHasNeg && aHasPos && bn.Name == ap.Name && bn.Inverse().satisfies(ap):
		prior, priorNeg, priorLine, latter, latterLine = b, bn, bLine, a, aLine
	default:
		return "", false
	}

	var sb strings.Builder
	positives := r.d.terseAll(prior.Terms, true)
	if len(positives) > 1 {
		sb.WriteString("if " + strings.Join(positives, " or ") + " then ")
	} else {
		pos, _ := prior.single(true)
		sb.WriteString(r.d.terse(pos, true) + " " + verb(prior) + " ")
	}
	sb.WriteString(r.d.terse(priorNeg, false) + lineRef(priorLine))
	sb.WriteString(" which " + verb(latter) + " ")
	sb.WriteString(strings.Join(r.d.terseAll(latter.Terms, false), " or ") + lineRef(latterLine))
	return sb.String(), true
}

func (r *report) requiresForbidden(a, b *Incompatibility, aLine, bLine int) (string, bool) {
	if len(a.Terms) != 1 && len(b.Terms) != 1 {
		return "", false
	}
	prior, latter, priorLine, latterLine := a, b, aLine, bLine
	if len(a.Terms) == 1 {
		prior, latter, priorLine, latterLine = b, a, bLine, aLine
	}

	neg, ok := prior.single(false)
	if !ok || !neg.Inverse().satisfies(latter.Terms[0]) {
		return "", false
	}

	var sb strings.Builder
	positives := r.d.terseAll(prior.Terms, true)
	switch {
	case len(positives) > 1:
		sb.WriteString("if " + strings.Join(positives, " or ") + " then ")
	case len(positives) == 1:
		pos, _ := prior.single(true)
		sb.WriteString(r.d.terse(pos, true) + " " + verb(prior) + " ")
	default:
		return "", false
	}
	if latter.kind == causeOverride {
		sb.WriteString(r.d.terse(neg, false) + lineRef(priorLine))
		sb.WriteString(" but " + r.d.describe(latter) + lineRef(latterLine))
		return sb.String(), true
	}
	sb.WriteString(r.d.terse(latter.Terms[0], false) + lineRef(priorLine))
	switch latter.kind {
	case causeNoVersions:
		if latter.notFound {
			sb.WriteString(" which could not be found")
		} else {
			sb.WriteString(" which doesn't match any versions")
		}
	case causeUnavailable:
		sb.WriteString(" which is unavailable")
		if latter.err != nil {
			sb.WriteString(" (" + latter.err.Error() + ")")
		}
	default:
		sb.WriteString(" which is forbidden")
	}
	sb.WriteString(lineRef(latterLine))
	return sb.String(), true
}
