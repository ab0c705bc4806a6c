package resolve

import (
	"testing"

	"github.com/matzehuels/gemlock/pkg/gemver"
)

func term(positive bool, req string) Term {
	return Term{Name: "foo", Positive: positive, Set: gemver.MustParseRequirement(req).Set()}
}

func TestTermRelation(t *testing.T) {
	tests := []struct {
		name string
		a, b Term
		want relation
	}{
		{"narrower positive", term(true, "~> 1.5"), term(true, "~> 1.0"), relSubset},
		{"disjoint positives", term(true, "~> 2.0"), term(true, "~> 1.0"), relDisjoint},
		{"overlapping positives", term(true, ">= 1.5, < 3"), term(true, "~> 1.0"), relOverlapping},
		{"positive outside negative", term(true, "~> 2.0"), term(false, "~> 1.0"), relSubset},
		{"positive inside negative", term(true, "~> 1.5"), term(false, "~> 1.0"), relDisjoint},
		{"negative covering positive", term(false, "~> 1.0"), term(true, "~> 1.5"), relDisjoint},
		{"negative never subset of positive", term(false, "< 1"), term(true, ">= 0"), relOverlapping},
		{"wider negative", term(false, "~> 1.0"), term(false, "~> 1.5"), relSubset},
		{"negatives never disjoint", term(false, "< 1"), term(false, ">= 1"), relOverlapping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.relation(tt.b); got != tt.want {
				t.Errorf("%s relation %s = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTermIntersect(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Term
		want     string
		positive bool
		empty    bool
	}{
		{"positives", term(true, "~> 1.0"), term(true, ">= 1.5, < 3"), ">= 1.5, < 2", true, false},
		{"positive and negative", term(true, "~> 1.0"), term(false, ">= 1.5"), ">= 1.0, < 1.5", true, false},
		{"negatives union", term(false, "~> 1.0"), term(false, ">= 1.5, < 3"), ">= 1.0, < 3", false, false},
		{"contradiction", term(true, "~> 1.0"), term(false, ">= 0"), "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.intersect(tt.b)
			if ok == tt.empty {
				t.Fatalf("intersect ok = %v, want %v", ok, !tt.empty)
			}
			if tt.empty {
				return
			}
			if got.Positive != tt.positive || got.Set.String() != tt.want {
				t.Errorf("intersect = %s (positive=%v), want %s (positive=%v)", got.Set, got.Positive, tt.want, tt.positive)
			}
		})
	}
}

func TestTermString(t *testing.T) {
	labelled := Term{Name: "rack", Set: gemver.MustParseRequirement("~> 2.2").Set(), Label: "~> 2.2"}
	if got := labelled.String(); got != "not rack ~> 2.2" {
		t.Errorf("String() = %q", got)
	}
	if got := labelled.Inverse().String(); got != "rack ~> 2.2" {
		t.Errorf("Inverse().String() = %q", got)
	}
	if got := positiveTerm("rack", gemver.Any()).String(); got != "rack" {
		t.Errorf("String() = %q", got)
	}
}

func TestPartialSolutionBacktrack(t *testing.T) {
	ps := newPartialSolution()
	cause := newIncompatibility([]Term{negativeTerm(rootPackage, gemver.Any())}, causeRoot)

	ps.derive(positiveTerm("foo", gemver.MustParseRequirement(">= 1").Set()), cause)
	ps.decide("foo", gemver.MustParse("2.0"))
	ps.derive(positiveTerm("bar", gemver.MustParseRequirement("~> 1.0").Set()), cause)
	ps.decide("bar", gemver.MustParse("1.2"))

	if ps.level() != 2 {
		t.Fatalf("level = %d, want 2", ps.level())
	}
	if !ps.satisfies(positiveTerm("bar", gemver.Any())) {
		t.Error("bar should be satisfied")
	}

	ps.backtrack(1)
	if ps.level() != 1 || len(ps.assignments) != 3 {
		t.Fatalf("after backtrack: level %d, %d assignments", ps.level(), len(ps.assignments))
	}
	if _, ok := ps.decisions["bar"]; ok {
		t.Error("bar decision should be gone")
	}
	un := ps.unsatisfied()
	if len(un) != 1 || un[0].Name != "bar" {
		t.Errorf("unsatisfied = %v, want bar", un)
	}

	a, err := ps.satisfier(positiveTerm("foo", gemver.MustParseRequirement("= 2.0").Set()))
	if err != nil || !a.isDecision() {
		t.Errorf("satisfier = %+v, %v; want the foo decision", a, err)
	}
	if _, err := ps.satisfier(positiveTerm("baz", gemver.Any())); err == nil {
		t.Error("satisfier of an unassigned package should fail")
	}
}

func TestNewIncompatibility(t *testing.T) {
	foo1 := positiveTerm("foo", gemver.MustParseRequirement(">= 1").Set())
	notFoo2 := negativeTerm("foo", gemver.MustParseRequirement(">= 2").Set())
	root := positiveTerm(rootPackage, gemver.Any())
	bar := positiveTerm("bar", gemver.Any())

	inc := newIncompatibility([]Term{foo1, root, notFoo2, bar}, causeConflict)
	if len(inc.Terms) != 2 {
		t.Fatalf("terms = %v, want foo and bar", inc.Terms)
	}
	if inc.Terms[0].Name != "foo" || inc.Terms[0].Set.String() != ">= 1, < 2" {
		t.Errorf("merged foo = %s", inc.Terms[0])
	}

	if !newIncompatibility([]Term{root}, causeConflict).isFailure() {
		t.Error("lone root term should be the failure")
	}
	if !newIncompatibility([]Term{root, root}, causeConflict).isFailure() {
		t.Error("root terms should be dropped from derived incompatibilities")
	}
}

func TestDescribe(t *testing.T) {
	d := describer{root: "Gemfile"}
	rack := Term{Name: "rack", Set: gemver.MustParseRequirement(">= 3").Set(), Label: ">= 3"}
	puma := positiveTerm("puma", gemver.Any())

	tests := []struct {
		inc  *Incompatibility
		want string
	}{
		{newIncompatibility([]Term{puma, rack}, causeDependency), "every version of puma depends on rack >= 3"},
		{newIncompatibility([]Term{positiveTerm(rootPackage, gemver.Any()), rack}, causeDependency), "Gemfile depends on rack >= 3"},
		{newIncompatibility([]Term{rack.Inverse()}, causeNoVersions), "no versions of rack match >= 3"},
		{newIncompatibility([]Term{puma}, causeConflict), "puma is forbidden"},
		{newIncompatibility([]Term{puma, positiveTerm("rack", gemver.Any())}, causeConflict), "puma is incompatible with rack"},
		{newIncompatibility([]Term{rack, negativeTerm("puma", gemver.MustParseRequirement("< 6").Set())}, causeConflict), "either rack >= 3 or puma < 6"},
	}
	for _, tt := range tests {
		if got := d.describe(tt.inc); got != tt.want {
			t.Errorf("describe = %q, want %q", got, tt.want)
		}
	}
}
