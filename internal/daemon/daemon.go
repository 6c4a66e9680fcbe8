// Package daemon wires the task organizer, sync queue, compositor backend
// and IPC server into the long-running process.
package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/1broseidon/taskleash/internal/config"
	"github.com/1broseidon/taskleash/internal/ipc"
	"github.com/1broseidon/taskleash/internal/platform"
	"github.com/1broseidon/taskleash/internal/syncqueue"
	"github.com/1broseidon/taskleash/internal/tasks"
)

// Daemon owns every runtime component.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	queue      *syncqueue.Queue
	organizer  *tasks.Organizer
	fullscreen *tasks.FullscreenTaskListener
	server     *ipc.Server
	reconciler *Reconciler
}

// New builds a daemon that commits surface updates through backend and
// serves controllers on socketPath.
func New(cfg *config.Config, backend platform.Backend, socketPath string, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	queue := syncqueue.New(backend, logger.With("component", "sync_queue"))
	fullscreen := tasks.NewFullscreenTaskListener(queue, tasks.FullscreenOptions{
		ShellTransitions: cfg.ShellTransitions,
		Logger:           logger.With("component", "fullscreen"),
	})
	organizer := tasks.NewOrganizer(logger.With("component", "organizer"))
	if err := organizer.AddListener(tasks.ListenerTypeFullscreen, fullscreen); err != nil {
		return nil, fmt.Errorf("register fullscreen listener: %w", err)
	}

	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		queue:      queue,
		organizer:  organizer,
		fullscreen: fullscreen,
		server: ipc.NewServer(socketPath, organizer, queue, ipc.ServerOptions{
			ShellTransitions: cfg.ShellTransitions,
			Logger:           logger.With("component", "ipc"),
		}),
	}
	if interval := cfg.ReconcileInterval(); interval > 0 {
		d.reconciler = NewReconciler(ReconcilerConfig{
			Interval: interval,
			Logger:   logger.With("component", "reconciler"),
		}, fullscreen.Tasks, backend)
	}
	return d, nil
}

// Organizer exposes the task organizer for callers that embed the daemon.
func (d *Daemon) Organizer() *tasks.Organizer {
	return d.organizer
}

// Run serves until ctx is cancelled. Pending surface updates are flushed
// before it returns.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.server.Start(); err != nil {
		return err
	}
	defer d.server.Stop()

	d.logger.Info("taskleash daemon started",
		"shell_transitions", d.cfg.ShellTransitions,
		"sync_interval", d.cfg.SyncInterval())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.queue.Run(ctx, d.cfg.SyncInterval())
	}()
	if d.reconciler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.reconciler.Run(ctx)
		}()
	}

	<-ctx.Done()
	wg.Wait()
	d.logger.Info("taskleash daemon stopped")
	return nil
}
