package resolve

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	gemerrors "github.com/matzehuels/gemlock/pkg/errors"
	"github.com/matzehuels/gemlock/pkg/gemver"
	"github.com/matzehuels/gemlock/pkg/integrations"
	"github.com/matzehuels/gemlock/pkg/observability"
)

var rootVersion = gemver.MustParse("0")

// solver holds the state of one resolution run. It is single-threaded;
// only the Provider behind it fetches concurrently.
type solver struct {
	ctx      context.Context
	provider Provider
	opts     Options
	pref     Preference
	logger   *log.Logger

	root     *packageVersions
	rootReqs map[string]bool // gems the manifest names directly
	rootPre  map[string]bool // gems whose manifest requirement names a prerelease

	incompatibilities map[string][]*Incompatibility
	deps              map[string]*Incompatibility // dependency incompatibilities by key
	order             map[string]int              // first-reference order
	solution          *partialSolution

	packages map[string]*packageVersions
	failed   map[string]error
	pinned   []string // packages whose override was added but not yet propagated

	stats Stats
}

func newSolver(ctx context.Context, p Provider, root []Dependency, opts Options) *solver {
	s := &solver{
		ctx:               ctx,
		provider:          p,
		opts:              opts,
		pref:              opts.preference(),
		logger:            opts.Logger,
		rootReqs:          make(map[string]bool),
		rootPre:           make(map[string]bool),
		incompatibilities: make(map[string][]*Incompatibility),
		deps:              make(map[string]*Incompatibility),
		order:             make(map[string]int),
		solution:          newPartialSolution(),
		packages:          make(map[string]*packageVersions),
		failed:            make(map[string]error),
	}
	for _, d := range root {
		s.rootReqs[d.Name] = true
		if d.Requirement.Prerelease() {
			s.rootPre[d.Name] = true
		}
	}
	s.root = &packageVersions{
		name:     rootPackage,
		releases: []release{{version: rootVersion, deps: root}},
	}
	return s
}

// solve runs until every referenced package is decided or the failure
// incompatibility is derived.
func (s *solver) solve() (map[string]gemver.Version, error) {
	s.add(newIncompatibility([]Term{negativeTerm(rootPackage, gemver.Any())}, causeRoot))

	next := rootPackage
	for {
		if err := s.ctx.Err(); err != nil {
			return nil, gemerrors.Wrap(gemerrors.ErrCodeCancelled, err, "resolution cancelled")
		}
		s.stats.Steps++
		if s.stats.Steps > s.opts.MaxSteps {
			return nil, gemerrors.New(gemerrors.ErrCodeInternal, "gave up after %d solver steps", s.opts.MaxSteps)
		}

		if err := s.propagate(next); err != nil {
			return nil, err
		}

		name, err := s.choose()
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}
		next = name
	}

	out := make(map[string]gemver.Version, len(s.solution.decisions))
	for name, v := range s.solution.decisions {
		if name != rootPackage {
			out[name] = v
		}
	}
	return out, nil
}

func (s *solver) add(inc *Incompatibility) {
	for _, t := range inc.Terms {
		if _, ok := s.order[t.Name]; !ok {
			s.order[t.Name] = len(s.order)
		}
		s.incompatibilities[t.Name] = append(s.incompatibilities[t.Name], inc)
	}
}

// =============================================================================
// Unit propagation
// =============================================================================

type propagation int

const (
	propNone propagation = iota
	propDerived
	propConflict
)

func (s *solver) propagate(name string) error {
	changed := []string{name}
	queued := map[string]bool{name: true}

	for len(changed) > 0 {
		pkg := changed[0]
		changed = changed[1:]
		delete(queued, pkg)

		// Newest first: learned incompatibilities are the most general.
		incs := s.incompatibilities[pkg]
		for i := len(incs) - 1; i >= 0; i-- {
			res, derivedName := s.propagateIncompatibility(incs[i])
			if res == propDerived {
				if !queued[derivedName] {
					queued[derivedName] = true
					changed = append(changed, derivedName)
				}
				continue
			}
			if res != propConflict {
				continue
			}

			rootCause, err := s.resolveConflict(incs[i])
			if err != nil {
				return err
			}
			res, derivedName = s.propagateIncompatibility(rootCause)
			if res != propDerived {
				return gemerrors.New(gemerrors.ErrCodeInternal, "learned incompatibility %s derived nothing", rootCause)
			}
			changed = []string{derivedName}
			queued = map[string]bool{derivedName: true}
			break
		}
	}
	return nil
}

// propagateIncompatibility derives the inverse of the one term of inc the
// solution leaves undecided, reports a conflict when all terms hold, and
// does nothing otherwise.
func (s *solver) propagateIncompatibility(inc *Incompatibility) (propagation, string) {
	var unsatisfied *Term
	for i := range inc.Terms {
		switch s.solution.relation(inc.Terms[i]) {
		case relDisjoint:
			return propNone, ""
		case relOverlapping:
			if unsatisfied != nil {
				return propNone, ""
			}
			unsatisfied = &inc.Terms[i]
		}
	}
	if unsatisfied == nil {
		return propConflict, ""
	}

	t := unsatisfied.Inverse()
	s.logger.Debug("derived", "term", t.String())
	s.solution.derive(t, inc)
	if t.Positive {
		s.provider.Prefetch(t.Name)
	}
	return propDerived, t.Name
}

// =============================================================================
// Conflict resolution
// =============================================================================

// resolveConflict learns the root cause of a satisfied incompatibility and
// backjumps to where it allows propagation again. It returns a
// *SolveError when the root cause is the failure incompatibility.
func (s *solver) resolveConflict(inc *Incompatibility) (*Incompatibility, error) {
	s.stats.Conflicts++
	s.logger.Debug("conflict", "incompatibility", inc.String())
	learned := false

	for !inc.isFailure() {
		recentTerm := -1
		previousLevel := 1
		var recent assignment
		var difference *Term

		for i, t := range inc.Terms {
			sat, err := s.solution.satisfier(t)
			if err != nil {
				return nil, gemerrors.Wrap(gemerrors.ErrCodeInternal, err, "conflict resolution")
			}
			switch {
			case recentTerm < 0:
				recentTerm, recent = i, sat
			case recent.index < sat.index:
				previousLevel = max(previousLevel, recent.level)
				recentTerm, recent = i, sat
				difference = nil
			default:
				previousLevel = max(previousLevel, sat.level)
			}

			if recentTerm == i {
				if d, ok := recent.Term.difference(t); ok {
					difference = &d
					prior, err := s.solution.satisfier(d.Inverse())
					if err != nil {
						return nil, gemerrors.Wrap(gemerrors.ErrCodeInternal, err, "conflict resolution")
					}
					previousLevel = max(previousLevel, prior.level)
				} else {
					difference = nil
				}
			}
		}

		if previousLevel < recent.level || recent.isDecision() {
			s.solution.backtrack(previousLevel)
			if learned {
				s.add(inc)
			}
			s.logger.Debug("backjump", "level", previousLevel, "learned", inc.String())
			observability.Resolver().OnConflict(s.ctx, recent.Name, previousLevel)
			return inc, nil
		}

		var terms []Term
		for i, t := range inc.Terms {
			if i != recentTerm {
				terms = append(terms, t)
			}
		}
		for _, t := range recent.cause.Terms {
			if t.Name != recent.Name {
				terms = append(terms, t)
			}
		}
		if difference != nil {
			terms = append(terms, difference.Inverse())
		}
		inc = derived(terms, inc, recent.cause)
		learned = true
		s.logger.Debug("learned", "incompatibility", inc.String())
	}

	return nil, &SolveError{root: inc}
}

// =============================================================================
// Decision making
// =============================================================================

// choose decides a version for the most constrained undecided package and
// returns its name, or "" when every package is decided.
func (s *solver) choose() (string, error) {
	unsatisfied := s.solution.unsatisfied()
	if len(unsatisfied) == 0 {
		return "", nil
	}

	names := make([]string, len(unsatisfied))
	for i, t := range unsatisfied {
		names[i] = t.Name
	}
	s.provider.Prefetch(names...)

	type option struct {
		term  Term
		count int
	}
	opts := make([]option, 0, len(unsatisfied))
	for _, t := range unsatisfied {
		pv, err := s.versionsFor(t.Name)
		if err != nil && s.ctx.Err() != nil {
			return "", gemerrors.Wrap(gemerrors.ErrCodeCancelled, err, "resolution cancelled")
		}
		n := 0
		if pv != nil {
			n = pv.count(t.Set)
		}
		opts = append(opts, option{term: t, count: n})
	}
	if len(s.pinned) > 0 {
		name := s.pinned[0]
		s.pinned = s.pinned[1:]
		return name, nil
	}
	slices.SortFunc(opts, func(a, b option) int {
		if a.count != b.count {
			return a.count - b.count
		}
		if oa, ob := s.order[a.term.Name], s.order[b.term.Name]; oa != ob {
			return oa - ob
		}
		return strings.Compare(a.term.Name, b.term.Name)
	})
	term := opts[0].term
	name := term.Name

	pv, err := s.versionsFor(name)
	if err != nil {
		if s.rootReqs[name] {
			return "", gemerrors.Wrap(fetchCode(err), err, "fetch metadata for %s", name)
		}
		s.logger.Debug("unavailable", "gem", name, "err", err)
		inc := newIncompatibility([]Term{positiveTerm(name, gemver.Any())}, causeUnavailable)
		inc.err = err
		s.add(inc)
		return name, nil
	}

	allowed := pv.allowed(term.Set)
	if len(allowed) == 0 {
		inc := newIncompatibility([]Term{term}, causeNoVersions)
		inc.notFound = pv.notFound
		s.add(inc)
		return name, nil
	}

	v := s.pref.Pick(name, allowed)
	idx := pv.index(v)
	if idx < 0 {
		return "", gemerrors.New(gemerrors.ErrCodeInternal, "preference picked %s %s, which is not a candidate", name, v)
	}

	conflict := false
	var next []string
	for _, inc := range s.dependencyIncompatibilities(pv, idx) {
		next = append(next, inc.Terms[1].Name)
		if conflict {
			continue
		}
		conflict = true
		for _, t := range inc.Terms {
			if t.Name != name && !s.solution.satisfies(t) {
				conflict = false
				break
			}
		}
	}
	s.provider.Prefetch(next...)

	if !conflict {
		s.solution.decide(name, v)
		s.stats.Decisions++
		s.logger.Debug("decided", "gem", s.display(name), "version", v.String(), "level", s.solution.level())
		observability.Resolver().OnDecision(s.ctx, s.display(name), v.String(), s.solution.level())
	}
	return name, nil
}

func (s *solver) versionsFor(name string) (*packageVersions, error) {
	if name == rootPackage {
		return s.root, nil
	}
	if pv, ok := s.packages[name]; ok {
		return pv, nil
	}
	if err, ok := s.failed[name]; ok {
		return nil, err
	}

	cands, err := s.provider.Candidates(s.ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			pv := &packageVersions{name: name, notFound: true}
			s.packages[name] = pv
			return pv, nil
		}
		if s.ctx.Err() == nil {
			s.failed[name] = err
		}
		return nil, err
	}

	f := filter{
		platforms:   s.opts.Platforms,
		prerelease:  s.opts.Prerelease || s.rootPre[name] || slices.Contains(s.opts.PrereleaseGems, name),
		rubyVersion: s.opts.RubyVersion,
	}
	pv := buildVersions(name, cands, f, s.logger)
	s.packages[name] = pv
	if req, ok := s.opts.Overrides[name]; ok && !s.rootReqs[name] {
		s.pin(pv, req)
	}
	return pv, nil
}

// pin forbids the versions of a transitive gem outside its override. An
// override that matches none of the viable versions is ignored.
func (s *solver) pin(pv *packageVersions, req gemver.Requirement) {
	if len(pv.releases) == 0 {
		return
	}
	if pv.count(req.Set()) == 0 {
		s.logger.Debug("override leaves no candidates, ignoring", "gem", pv.name, "override", req.String())
		return
	}
	inc := newIncompatibility([]Term{positiveTerm(pv.name, req.Set().Complement())}, causeOverride)
	inc.pin = req.String()
	s.add(inc)
	s.pinned = append(s.pinned, pv.name)
}

// dependencyIncompatibilities returns "pkg in R depends on dep" for each
// dependency of the i-th release, where R spans the adjacent releases that
// share the same requirement on dep.
func (s *solver) dependencyIncompatibilities(pv *packageVersions, i int) []*Incompatibility {
	var out []*Incompatibility
	for _, dep := range pv.releases[i].deps {
		if dep.Name == pv.name {
			continue
		}
		label := dep.Requirement.String()
		lo, hi := i, i
		for lo > 0 && requires(pv.releases[lo-1], dep.Name, label) {
			lo--
		}
		for hi < len(pv.releases)-1 && requires(pv.releases[hi+1], dep.Name, label) {
			hi++
		}

		key := fmt.Sprintf("%s\x00%d\x00%d\x00%s\x00%s", pv.name, lo, hi, dep.Name, label)
		inc, ok := s.deps[key]
		if !ok {
			depender := positiveTerm(pv.name, spanSet(pv, lo, hi))
			dependee := Term{Name: dep.Name, Set: dep.Requirement.Set(), Label: label}
			inc = newIncompatibility([]Term{depender, dependee}, causeDependency)
			s.deps[key] = inc
			s.add(inc)
		}
		out = append(out, inc)
	}
	return out
}

func requires(r release, name, label string) bool {
	for _, d := range r.deps {
		if d.Name == name {
			return d.Requirement.String() == label
		}
	}
	return false
}

// spanSet covers releases lo..hi and the gaps around them, open-ended at
// the oldest and newest release.
func spanSet(pv *packageVersions, lo, hi int) gemver.Set {
	set := gemver.Any()
	if lo > 0 {
		set = set.Intersect(gemver.AtLeast(pv.releases[lo].version))
	}
	if hi < len(pv.releases)-1 {
		set = set.Intersect(gemver.LessThan(pv.releases[hi+1].version))
	}
	return set
}

func (s *solver) display(name string) string {
	if name == rootPackage {
		return s.opts.rootName
	}
	return name
}

func fetchCode(err error) gemerrors.Code {
	switch {
	case errors.Is(err, ErrFetchTimeout):
		return gemerrors.ErrCodeTimeout
	case errors.Is(err, integrations.ErrOffline):
		return gemerrors.ErrCodeOffline
	case errors.Is(err, integrations.ErrRateLimited):
		return gemerrors.ErrCodeRateLimited
	default:
		return gemerrors.ErrCodeNetwork
	}
}
