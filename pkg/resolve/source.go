package resolve

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gemlock/pkg/gemver"
	"github.com/matzehuels/gemlock/pkg/integrations"
	"github.com/matzehuels/gemlock/pkg/integrations/rubygems"
	"github.com/matzehuels/gemlock/pkg/platform"
)

var (
	// ErrNotFound is returned by a Source for a gem it has never heard of.
	ErrNotFound = errors.New("gem not found")

	// ErrFetchTimeout is returned by an Index when a fetch outlives its
	// per-fetch timeout.
	ErrFetchTimeout = errors.New("metadata fetch timed out")
)

// Source fetches every published build of a gem. Implementations must be
// safe for concurrent use.
type Source interface {
	Fetch(ctx context.Context, name string) ([]Candidate, error)
}

// RegistrySource reads candidates from a RubyGems compact index.
type RegistrySource struct {
	client  *rubygems.Client
	refresh bool
	logger  *log.Logger
}

// NewRegistrySource wraps client. If refresh is true, cached metadata is
// bypassed.
func NewRegistrySource(client *rubygems.Client, refresh bool, logger *log.Logger) *RegistrySource {
	if logger == nil {
		logger = log.Default()
	}
	return &RegistrySource{client: client, refresh: refresh, logger: logger}
}

// Fetch implements Source.
func (s *RegistrySource) Fetch(ctx context.Context, name string) ([]Candidate, error) {
	infos, err := s.client.FetchInfo(ctx, name, s.refresh)
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	return fromInfos(name, infos, s.logger), nil
}

// fromInfos converts compact index lines. Lines with an unparsable version
// or requirement are skipped: a build we cannot read is not a candidate.
func fromInfos(name string, infos []rubygems.VersionInfo, logger *log.Logger) []Candidate {
	out := make([]Candidate, 0, len(infos))
	for _, info := range infos {
		c, err := candidateFromInfo(name, info)
		if err != nil {
			logger.Debug("skipping unreadable build", "gem", name, "version", info.Version, "err", err)
			continue
		}
		out = append(out, c)
	}
	return out
}

func candidateFromInfo(name string, info rubygems.VersionInfo) (Candidate, error) {
	v, err := gemver.Parse(info.Version)
	if err != nil {
		return Candidate{}, err
	}
	ruby, err := gemver.ParseRequirement(info.RequiredRuby)
	if err != nil {
		return Candidate{}, err
	}
	c := Candidate{Name: name, Version: v, RequiredRuby: ruby}
	if !platform.IsRuby(info.Platform) {
		c.Platform = info.Platform
	}
	for _, d := range info.Dependencies {
		req, err := gemver.ParseRequirement(d.Requirement)
		if err != nil {
			return Candidate{}, err
		}
		c.Dependencies = append(c.Dependencies, Dependency{Name: d.Name, Requirement: req})
	}
	return c, nil
}

// MemorySource serves candidates registered in memory. It backs tests and
// resolutions against a fixed package universe.
type MemorySource struct {
	mu   sync.RWMutex
	gems map[string][]Candidate
	errs map[string]error
}

// NewMemorySource returns an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		gems: make(map[string][]Candidate),
		errs: make(map[string]error),
	}
}

// Add registers a build. deps alternate gem name and requirement:
//
//	src.Add("rails", "7.1.0", "", "activesupport", "= 7.1.0")
func (m *MemorySource) Add(name, version, platform string, deps ...string) *MemorySource {
	c := Candidate{Name: name, Version: gemver.MustParse(version), Platform: platform}
	for i := 0; i+1 < len(deps); i += 2 {
		c.Dependencies = append(c.Dependencies, Dependency{
			Name:        deps[i],
			Requirement: gemver.MustParseRequirement(deps[i+1]),
		})
	}
	return m.AddCandidate(c)
}

// AddCandidate registers a fully specified build.
func (m *MemorySource) AddCandidate(c Candidate) *MemorySource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gems[c.Name] = append(m.gems[c.Name], c)
	return m
}

// Fail makes every fetch of name return err.
func (m *MemorySource) Fail(name string, err error) *MemorySource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[name] = err
	return m
}

// Names returns the registered gem names, sorted.
func (m *MemorySource) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.gems))
	for name := range m.gems {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Fetch implements Source.
func (m *MemorySource) Fetch(ctx context.Context, name string) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.errs[name]; ok {
		return nil, err
	}
	cands, ok := m.gems[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return slices.Clone(cands), nil
}
