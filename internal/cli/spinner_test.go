package cli

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSpinnerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Resolving...")
	s.Start()
	cancel()
	time.Sleep(50 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerWithContext(context.Background(), "Resolving...")
	s.Start()
	s.Stop()
	s.Stop()
	s.StopWithSuccess("done")
}

func TestSpinnerPollsStatus(t *testing.T) {
	var calls atomic.Int32
	s := newSpinnerWithContext(context.Background(), "Resolving...").WithStatus(func() string {
		calls.Add(1)
		return "(3 fetched)"
	})
	s.Start()
	time.Sleep(250 * time.Millisecond)
	s.StopWithError("failed")

	if calls.Load() == 0 {
		t.Error("status func was never polled")
	}
	if got := s.line(); got != "Resolving... (3 fetched)" {
		t.Errorf("line() = %q", got)
	}
}

func TestSpinnerLineWithoutStatus(t *testing.T) {
	s := newSpinnerWithContext(context.Background(), "Resolving...")
	if got := s.line(); got != "Resolving..." {
		t.Errorf("line() = %q", got)
	}
	s.WithStatus(func() string { return "" })
	if got := s.line(); got != "Resolving..." {
		t.Errorf("line() with empty status = %q", got)
	}
}
