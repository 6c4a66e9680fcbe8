// Package syncqueue batches deferred surface mutations so that everything
// submitted within one cycle reaches the compositor as a single transaction.
package syncqueue

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/taskleash/internal/surface"
)

// DefaultInterval is one frame at 60Hz.
const DefaultInterval = 16 * time.Millisecond

// Applier commits a transaction to the compositor atomically.
type Applier interface {
	Apply(t *surface.Transaction) error
}

// Queue collects mutation closures and applies them once per cycle.
type Queue struct {
	applier Applier
	logger  *slog.Logger

	mu      sync.Mutex
	pending []func(*surface.Transaction)

	// flushMu keeps cycles from overlapping when Flush is called from both
	// Run and an explicit sync request.
	flushMu sync.Mutex
}

// New creates a queue that commits through applier.
func New(applier Applier, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Queue{
		applier: applier,
		logger:  logger,
	}
}

// RunInSync schedules fn to write into the next cycle's transaction. It
// never blocks on the compositor.
func (q *Queue) RunInSync(fn func(t *surface.Transaction)) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Pending returns the number of closures waiting for the next cycle.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush ends the current cycle: every pending closure runs, in submission
// order, into one transaction which is then applied. Failed cycles are not
// retried.
func (q *Queue) Flush() error {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	q.mu.Lock()
	fns := q.pending
	q.pending = nil
	q.mu.Unlock()

	if len(fns) == 0 {
		return nil
	}

	t := surface.NewTransaction()
	for _, fn := range fns {
		fn(t)
	}
	if t.Empty() {
		return nil
	}

	q.logger.Debug("applying transaction", "closures", len(fns), "ops", t.Len())
	if err := q.applier.Apply(t); err != nil {
		return fmt.Errorf("apply transaction: %w", err)
	}
	return nil
}

// Run flushes every interval until ctx is cancelled, then flushes once more
// so nothing submitted before shutdown is lost.
func (q *Queue) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	q.logger.Info("sync queue started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			if err := q.Flush(); err != nil {
				q.logger.Error("sync queue: final flush failed", "error", err)
			}
			q.logger.Info("sync queue stopped")
			return
		case <-ticker.C:
			if err := q.Flush(); err != nil {
				q.logger.Error("sync queue: flush failed", "error", err)
			}
		}
	}
}
