package gemver

import (
	"regexp"
	"strings"

	"github.com/matzehuels/gemlock/pkg/errors"
)

// Op is a requirement operator.
type Op string

// Supported requirement operators.
const (
	OpEqual       Op = "="
	OpNotEqual    Op = "!="
	OpGreater     Op = ">"
	OpLess        Op = "<"
	OpGreaterEq   Op = ">="
	OpLessEq      Op = "<="
	OpPessimistic Op = "~>"
)

var constraintPattern = regexp.MustCompile(`^\s*(=|!=|>=|<=|>|<|~>)?\s*(\S+)\s*$`)

// Constraint is a single operator applied to a version.
type Constraint struct {
	Op      Op
	Version Version
}

// ParseConstraint parses a single constraint such as "~> 2.3" or "1.0".
// A bare version means "= version".
func ParseConstraint(s string) (Constraint, error) {
	m := constraintPattern.FindStringSubmatch(s)
	if m == nil {
		return Constraint{}, errors.New(errors.ErrCodeInvalidRequirement, "illformed requirement %q", s)
	}
	v, err := Parse(m[2])
	if err != nil {
		return Constraint{}, errors.Wrap(errors.ErrCodeInvalidRequirement, err, "illformed requirement %q", s)
	}
	op := Op(m[1])
	if op == "" {
		op = OpEqual
	}
	return Constraint{Op: op, Version: v}, nil
}

// Match reports whether v satisfies the constraint.
func (c Constraint) Match(v Version) bool {
	cmp := v.Compare(c.Version)
	switch c.Op {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	case OpGreaterEq:
		return cmp >= 0
	case OpLessEq:
		return cmp <= 0
	case OpPessimistic:
		return cmp >= 0 && v.Release().Less(c.Version.Bump())
	}
	return false
}

// Set returns the versions matched by the constraint.
func (c Constraint) Set() Set {
	switch c.Op {
	case OpEqual:
		return Exactly(c.Version)
	case OpNotEqual:
		return LessThan(c.Version).Union(GreaterThan(c.Version))
	case OpGreater:
		return GreaterThan(c.Version)
	case OpLess:
		return LessThan(c.Version)
	case OpGreaterEq:
		return AtLeast(c.Version)
	case OpLessEq:
		return AtMost(c.Version)
	case OpPessimistic:
		return Between(c.Version, c.Version.Bump().prereleaseFloor())
	}
	return Empty()
}

func (c Constraint) String() string {
	return string(c.Op) + " " + c.Version.String()
}

var zeroVersion = MustParse("0")

// Requirement is a conjunction of constraints. The zero Requirement
// matches every version.
type Requirement struct {
	constraints []Constraint
}

// ParseRequirement parses a comma separated list of constraints, for
// example "~> 2.3, >= 2.3.1". An empty string yields a requirement that
// matches every version.
func ParseRequirement(s string) (Requirement, error) {
	if strings.TrimSpace(s) == "" {
		return Requirement{}, nil
	}
	return ParseRequirements(strings.Split(s, ",")...)
}

// ParseRequirements parses each argument as a single constraint and
// combines them.
func ParseRequirements(parts ...string) (Requirement, error) {
	var r Requirement
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		c, err := ParseConstraint(p)
		if err != nil {
			return Requirement{}, err
		}
		r.constraints = append(r.constraints, c)
	}
	return r, nil
}

// MustParseRequirement is like ParseRequirement but panics on error.
func MustParseRequirement(s string) Requirement {
	r, err := ParseRequirement(s)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRequirement builds a requirement from constraints.
func NewRequirement(cs ...Constraint) Requirement {
	return Requirement{constraints: append([]Constraint(nil), cs...)}
}

// Constraints returns a copy of the requirement's constraints.
func (r Requirement) Constraints() []Constraint {
	return append([]Constraint(nil), r.constraints...)
}

// IsAny reports whether the requirement has no constraints or only
// constraints every version satisfies (">= 0").
func (r Requirement) IsAny() bool {
	for _, c := range r.constraints {
		if c.Op == OpGreaterEq && c.Version.Compare(zeroVersion) == 0 {
			continue
		}
		if !c.Set().IsAny() {
			return false
		}
	}
	return true
}

// Match reports whether v satisfies every constraint.
func (r Requirement) Match(v Version) bool {
	for _, c := range r.constraints {
		if !c.Match(v) {
			return false
		}
	}
	return true
}

// AllowsAny reports whether at least one of vs satisfies the requirement.
func (r Requirement) AllowsAny(vs []Version) bool {
	for _, v := range vs {
		if r.Match(v) {
			return true
		}
	}
	return false
}

// Set returns the versions matched by the requirement.
func (r Requirement) Set() Set {
	s := Any()
	for _, c := range r.constraints {
		s = s.Intersect(c.Set())
	}
	return s
}

// Prerelease reports whether any constraint names a prerelease version.
// RubyGems treats such a requirement as an opt-in to prerelease candidates.
func (r Requirement) Prerelease() bool {
	for _, c := range r.constraints {
		if c.Version.IsPrerelease() {
			return true
		}
	}
	return false
}

// String renders the requirement the way RubyGems does, ">= 0" when
// unconstrained.
func (r Requirement) String() string {
	if len(r.constraints) == 0 {
		return ">= 0"
	}
	parts := make([]string, len(r.constraints))
	for i, c := range r.constraints {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Intersect combines a and b. The boolean is false when no version can
// satisfy both, which lets callers reject contradictions before solving.
func Intersect(a, b Requirement) (Requirement, bool) {
	out := Requirement{constraints: make([]Constraint, 0, len(a.constraints)+len(b.constraints))}
	out.constraints = append(out.constraints, a.constraints...)
	out.constraints = append(out.constraints, b.constraints...)
	return out, !out.Set().IsEmpty()
}
