package cli

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks reports solver progress on the debug log and counts fetches
// into stats.
type logHooks struct {
	logger *log.Logger
	stats  *cacheStats
}

func (h *logHooks) OnResolveStart(_ context.Context, runID string, roots int) {
	h.logger.Debug("resolve started", "run", runID, "roots", roots)
}

func (h *logHooks) OnResolveComplete(_ context.Context, runID string, packages, steps int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("resolve failed", "run", runID, "steps", steps, "took", d.Round(time.Millisecond))
		return
	}
	h.logger.Debug("resolve finished", "run", runID, "gems", packages, "steps", steps, "took", d.Round(time.Millisecond))
}

func (h *logHooks) OnDecision(_ context.Context, pkg, version string, level int) {
	h.logger.Debug("decide", "gem", pkg, "version", version, "level", level)
}

func (h *logHooks) OnConflict(_ context.Context, pkg string, backjumpTo int) {
	h.logger.Debug("conflict", "gem", pkg, "backjump", backjumpTo)
}

func (h *logHooks) OnFetchComplete(_ context.Context, pkg string, candidates int, d time.Duration, err error) {
	if h.stats != nil {
		h.stats.fetched.Add(1)
	}
	if err != nil {
		h.logger.Debug("fetch failed", "gem", pkg, "err", err)
		return
	}
	h.logger.Debug("fetched", "gem", pkg, "builds", candidates, "took", d.Round(time.Millisecond))
}

// cacheStats counts metadata cache traffic and fetched gems for the
// spinner and the summary line.
type cacheStats struct {
	hits, misses atomic.Int64
	fetched      atomic.Int64
}

func (s *cacheStats) OnCacheHit(context.Context, string)      { s.hits.Add(1) }
func (s *cacheStats) OnCacheMiss(context.Context, string)     { s.misses.Add(1) }
func (s *cacheStats) OnCacheSet(context.Context, string, int) {}

func (s *cacheStats) reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.fetched.Store(0)
}

// status is the spinner suffix while a resolution runs.
func (s *cacheStats) status() string {
	n := s.fetched.Load()
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("(%d gems fetched)", n)
}
