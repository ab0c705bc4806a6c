package resolve

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingSource records how often and how concurrently it is called.
type countingSource struct {
	inner Source
	delay time.Duration

	mu      sync.Mutex
	calls   map[string]int
	active  atomic.Int32
	maxSeen atomic.Int32
}

func newCountingSource(inner Source, delay time.Duration) *countingSource {
	return &countingSource{inner: inner, delay: delay, calls: make(map[string]int)}
}

func (s *countingSource) Fetch(ctx context.Context, name string) ([]Candidate, error) {
	s.mu.Lock()
	s.calls[name]++
	s.mu.Unlock()

	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		old := s.maxSeen.Load()
		if n <= old || s.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}

	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.inner.Fetch(ctx, name)
}

func TestIndexOrdersNewestFirst(t *testing.T) {
	src := NewMemorySource().
		Add("rack", "2.2.8", "").
		Add("rack", "3.0.8", "").
		Add("rack", "3.0.8", "java").
		Add("rack", "1.6.13", "")

	ix := NewIndex(context.Background(), src, IndexOptions{})
	defer ix.Close()

	cands, err := ix.Candidates(context.Background(), "rack")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, c := range cands {
		got = append(got, c.Version.String()+"/"+c.Platform)
	}
	want := []string{"3.0.8/", "3.0.8/java", "2.2.8/", "1.6.13/"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidates = %v, want %v", got, want)
			break
		}
	}
}

func TestIndexFetchesOnce(t *testing.T) {
	src := newCountingSource(NewMemorySource().Add("rack", "3.0.8", ""), time.Millisecond)
	ix := NewIndex(context.Background(), src, IndexOptions{})
	defer ix.Close()

	ix.Prefetch("rack", "rack")
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ix.Candidates(context.Background(), "rack"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if n := src.calls["rack"]; n != 1 {
		t.Errorf("rack fetched %d times, want 1", n)
	}
	if ix.Fetched() != 1 {
		t.Errorf("Fetched() = %d, want 1", ix.Fetched())
	}
}

func TestIndexBoundsConcurrency(t *testing.T) {
	mem := NewMemorySource()
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, n := range names {
		mem.Add(n, "1.0", "")
	}
	src := newCountingSource(mem, 20*time.Millisecond)
	ix := NewIndex(context.Background(), src, IndexOptions{Workers: 2})
	defer ix.Close()

	ix.Prefetch(names...)
	for _, n := range names {
		if _, err := ix.Candidates(context.Background(), n); err != nil {
			t.Fatal(err)
		}
	}
	if peak := src.maxSeen.Load(); peak > 2 {
		t.Errorf("saw %d concurrent fetches, want at most 2", peak)
	}
}

func TestIndexTimeout(t *testing.T) {
	ix := NewIndex(context.Background(), blockingSource{}, IndexOptions{FetchTimeout: 10 * time.Millisecond})
	defer ix.Close()

	_, err := ix.Candidates(context.Background(), "slow")
	if !errors.Is(err, ErrFetchTimeout) {
		t.Errorf("err = %v, want ErrFetchTimeout", err)
	}
}

func TestIndexClose(t *testing.T) {
	ix := NewIndex(context.Background(), blockingSource{}, IndexOptions{})
	ix.Prefetch("slow")
	ix.Close()

	_, err := ix.Candidates(context.Background(), "slow")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestIndexCallerContext(t *testing.T) {
	ix := NewIndex(context.Background(), blockingSource{}, IndexOptions{})
	defer ix.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := ix.Candidates(ctx, "slow"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want the caller's deadline", err)
	}
}

func TestIndexNotFound(t *testing.T) {
	ix := NewIndex(context.Background(), NewMemorySource(), IndexOptions{})
	defer ix.Close()
	if _, err := ix.Candidates(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
