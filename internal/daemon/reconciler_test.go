package daemon

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/taskleash/internal/surface"
)

type fakeChecker struct {
	live   map[surface.Handle]bool
	failOn surface.Handle
	panic  bool
}

func (f *fakeChecker) SurfaceExists(h surface.Handle) (bool, error) {
	if f.panic {
		panic("connection lost")
	}
	if h == f.failOn {
		return false, errors.New("query failed")
	}
	return f.live[h], nil
}

func TestReconcileNow_ReportsOrphans(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	surfaces := map[int32]surface.Handle{1: 10, 2: 20, 3: 30, 4: 40}
	checker := &fakeChecker{live: map[surface.Handle]bool{10: true, 30: true}, failOn: 40}
	r := NewReconciler(ReconcilerConfig{Logger: logger}, func() map[int32]surface.Handle { return surfaces }, checker)

	orphaned := r.ReconcileNow()
	if len(orphaned) != 1 || orphaned[0] != 2 {
		t.Fatalf("expected orphaned [2], got %v", orphaned)
	}
	out := logs.String()
	if !strings.Contains(out, "orphaned surface detected") || !strings.Contains(out, "failed to check surface") {
		t.Fatalf("missing reconciler logs: %s", out)
	}
}

func TestReconcileNow_RecoversPanics(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	surfaces := map[int32]surface.Handle{1: 10}
	r := NewReconciler(ReconcilerConfig{Logger: logger}, func() map[int32]surface.Handle { return surfaces }, &fakeChecker{panic: true})

	r.ReconcileNow()
	if !strings.Contains(logs.String(), "reconciler panic recovered") {
		t.Fatalf("expected panic to be logged: %s", logs.String())
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	r := NewReconciler(ReconcilerConfig{Interval: time.Millisecond}, func() map[int32]surface.Handle { return nil }, &fakeChecker{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
