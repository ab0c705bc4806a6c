package resolve

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/gemlock/pkg/observability"
)

const (
	DefaultWorkers      = 8                // Default concurrent metadata fetches
	DefaultFetchTimeout = 30 * time.Second // Default limit for a single fetch
)

// Provider answers candidate queries for the solver.
type Provider interface {
	// Candidates returns every build of name, newest first. It blocks until
	// the metadata is available.
	Candidates(ctx context.Context, name string) ([]Candidate, error)
	// Prefetch starts loading names in the background.
	Prefetch(names ...string)
}

// IndexOptions configures an Index.
type IndexOptions struct {
	Workers      int           // Concurrent fetches (default: 8)
	FetchTimeout time.Duration // Per-fetch limit (default: 30s)
	Logger       *log.Logger   // Debug output (optional)
}

// WithDefaults returns a copy of IndexOptions with zero values replaced by defaults.
func (o IndexOptions) WithDefaults() IndexOptions {
	opts := o
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Index is a per-run Provider over a Source. Each name is fetched at most
// once; entries are never replaced. Fetches run on a bounded pool so the
// solver can request metadata ahead of need.
type Index struct {
	source Source
	opts   IndexOptions
	sem    *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	done       chan struct{}
	candidates []Candidate
	err        error
}

// NewIndex returns an Index whose fetches live at most as long as ctx.
// Call Close to abandon outstanding fetches.
func NewIndex(ctx context.Context, source Source, opts IndexOptions) *Index {
	opts = opts.WithDefaults()
	ctx, cancel := context.WithCancel(ctx)
	return &Index{
		source:  source,
		opts:    opts,
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
	}
}

// Prefetch implements Provider.
func (ix *Index) Prefetch(names ...string) {
	for _, name := range names {
		ix.start(name)
	}
}

// Candidates implements Provider.
func (ix *Index) Candidates(ctx context.Context, name string) ([]Candidate, error) {
	e := ix.start(name)
	select {
	case <-e.done:
		return e.candidates, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Fetched returns how many names have been requested.
func (ix *Index) Fetched() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.entries)
}

// Close cancels in-flight fetches. Their results are discarded.
func (ix *Index) Close() {
	ix.cancel()
}

func (ix *Index) start(name string) *entry {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if e, ok := ix.entries[name]; ok {
		return e
	}
	e := &entry{done: make(chan struct{})}
	ix.entries[name] = e
	go ix.fetch(name, e)
	return e
}

func (ix *Index) fetch(name string, e *entry) {
	defer close(e.done)

	if err := ix.sem.Acquire(ix.ctx, 1); err != nil {
		e.err = err
		return
	}
	defer ix.sem.Release(1)

	ctx, cancel := context.WithTimeout(ix.ctx, ix.opts.FetchTimeout)
	defer cancel()

	start := time.Now()
	cands, err := ix.source.Fetch(ctx, name)
	if err != nil && ix.ctx.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %s after %s", ErrFetchTimeout, name, ix.opts.FetchTimeout)
	}
	observability.Resolver().OnFetchComplete(ix.ctx, name, len(cands), time.Since(start), err)
	if err != nil {
		ix.opts.Logger.Debug("fetch failed", "gem", name, "err", err)
		e.err = err
		return
	}

	slices.SortStableFunc(cands, func(a, b Candidate) int {
		if c := b.Version.Compare(a.Version); c != 0 {
			return c
		}
		return strings.Compare(a.Platform, b.Platform)
	})
	e.candidates = cands
	ix.opts.Logger.Debug("fetched", "gem", name, "candidates", len(cands), "took", time.Since(start).Round(time.Millisecond))
}
