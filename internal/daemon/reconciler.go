package daemon

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/1broseidon/taskleash/internal/surface"
)

// SurfaceLister returns the task -> surface mapping to check.
type SurfaceLister func() map[int32]surface.Handle

// SurfaceChecker reports whether the compositor still knows a surface.
type SurfaceChecker interface {
	SurfaceExists(h surface.Handle) (bool, error)
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically looks for registered surfaces the compositor no
// longer has. It only reports them: the controller owns task lifecycles.
type Reconciler struct {
	interval     time.Duration
	listSurfaces SurfaceLister
	checker      SurfaceChecker
	logger       *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, listSurfaces SurfaceLister, checker SurfaceChecker) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Reconciler{
		interval:     interval,
		listSurfaces: listSurfaces,
		checker:      checker,
		logger:       logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// ReconcileNow runs a single pass and returns the orphaned task ids.
func (r *Reconciler) ReconcileNow() []int32 {
	return r.reconcile()
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() (orphaned []int32) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	surfaces := r.listSurfaces()
	ids := make([]int32, 0, len(surfaces))
	for id := range surfaces {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		leash := surfaces[id]
		exists, err := r.checker.SurfaceExists(leash)
		if err != nil {
			r.logger.Warn("reconciler: failed to check surface",
				"task_id", id,
				"leash", leash,
				"error", err)
			continue
		}
		if !exists {
			r.logger.Warn("reconciler: orphaned surface detected",
				"task_id", id,
				"leash", leash)
			orphaned = append(orphaned, id)
		}
	}
	return orphaned
}
