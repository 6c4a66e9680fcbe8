package syncqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/taskleash/internal/surface"
)

type recordingApplier struct {
	mu      sync.Mutex
	applied [][]surface.Op
	err     error
}

func (a *recordingApplier) Apply(t *surface.Transaction) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applied = append(a.applied, t.Ops())
	return a.err
}

func (a *recordingApplier) batches() [][]surface.Op {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]surface.Op(nil), a.applied...)
}

func TestFlush_BatchesCycleIntoOneTransaction(t *testing.T) {
	applier := &recordingApplier{}
	q := New(applier, nil)

	q.RunInSync(func(t *surface.Transaction) { t.SetPosition(1, 10, 10) })
	q.RunInSync(func(t *surface.Transaction) { t.SetWindowCrop(1, nil).Show(1) })
	q.RunInSync(func(t *surface.Transaction) { t.SetPosition(2, 20, 20) })

	if q.Pending() != 3 {
		t.Fatalf("expected 3 pending closures, got %d", q.Pending())
	}
	if len(applier.batches()) != 0 {
		t.Fatal("RunInSync applied synchronously")
	}

	if err := q.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	batches := applier.batches()
	if len(batches) != 1 {
		t.Fatalf("expected one transaction, got %d", len(batches))
	}
	kinds := []surface.OpKind{surface.OpSetPosition, surface.OpSetWindowCrop, surface.OpShow, surface.OpSetPosition}
	if len(batches[0]) != len(kinds) {
		t.Fatalf("expected %d ops, got %v", len(kinds), batches[0])
	}
	for i, kind := range kinds {
		if batches[0][i].Kind != kind {
			t.Fatalf("op %d: expected %s, got %s", i, kind, batches[0][i].Kind)
		}
	}
	if q.Pending() != 0 {
		t.Fatalf("expected queue drained, got %d", q.Pending())
	}
}

func TestFlush_EmptyCycleAppliesNothing(t *testing.T) {
	applier := &recordingApplier{}
	q := New(applier, nil)

	if err := q.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	q.RunInSync(func(*surface.Transaction) {})
	if err := q.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if n := len(applier.batches()); n != 0 {
		t.Fatalf("expected no applied transactions, got %d", n)
	}
}

func TestFlush_ErrorIsWrappedAndNotRetried(t *testing.T) {
	boom := errors.New("boom")
	applier := &recordingApplier{err: boom}
	q := New(applier, nil)

	q.RunInSync(func(t *surface.Transaction) { t.Show(1) })
	err := q.Flush()
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}

	applier.mu.Lock()
	applier.err = nil
	applier.mu.Unlock()
	if err := q.Flush(); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if n := len(applier.batches()); n != 1 {
		t.Fatalf("expected failed cycle not to be retried, got %d applies", n)
	}
}

func TestRunInSync_IgnoresNil(t *testing.T) {
	q := New(&recordingApplier{}, nil)
	q.RunInSync(nil)
	if q.Pending() != 0 {
		t.Fatalf("expected nil closure to be dropped")
	}
}

func TestRun_FlushesOnShutdown(t *testing.T) {
	applier := &recordingApplier{}
	q := New(applier, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx, time.Hour)
		close(done)
	}()

	q.RunInSync(func(t *surface.Transaction) { t.Hide(4) })
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	batches := applier.batches()
	if len(batches) != 1 || batches[0][0].Kind != surface.OpHide {
		t.Fatalf("expected final flush with HIDE, got %v", batches)
	}
}

func TestRun_FlushesOnInterval(t *testing.T) {
	applier := &recordingApplier{}
	q := New(applier, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx, 5*time.Millisecond)

	q.RunInSync(func(t *surface.Transaction) { t.Show(1) })

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(applier.batches()) == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("transaction was not applied by the run loop")
}

func TestQueue_ConcurrentSubmittersAllLand(t *testing.T) {
	applier := &recordingApplier{}
	q := New(applier, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.RunInSync(func(t *surface.Transaction) { t.Show(surface.Handle(i)) })
			if i%10 == 0 {
				_ = q.Flush()
			}
		}(i)
	}
	wg.Wait()
	if err := q.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	total := 0
	for _, b := range applier.batches() {
		total += len(b)
	}
	if total != 50 {
		t.Fatalf("expected 50 ops across batches, got %d", total)
	}
}
