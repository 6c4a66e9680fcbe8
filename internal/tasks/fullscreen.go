package tasks

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/1broseidon/taskleash/internal/surface"
)

const fullscreenTag = "FullscreenTaskListener"

// FullscreenOptions configures a FullscreenTaskListener.
type FullscreenOptions struct {
	// ShellTransitions hands alpha, transform and visibility to the
	// transition pipeline instead of resetting them on appearance.
	ShellTransitions bool
	Logger           *slog.Logger
}

// FullscreenTaskListener owns the task id -> surface mapping for fullscreen
// tasks and turns lifecycle events into queued surface transactions.
type FullscreenTaskListener struct {
	syncQueue        SyncQueue
	shellTransitions bool
	logger           *slog.Logger

	mu    sync.Mutex
	tasks map[int32]surface.Handle
}

var _ TaskListener = (*FullscreenTaskListener)(nil)

// NewFullscreenTaskListener creates a listener that submits its surface
// updates to syncQueue.
func NewFullscreenTaskListener(syncQueue SyncQueue, opts FullscreenOptions) *FullscreenTaskListener {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FullscreenTaskListener{
		syncQueue:        syncQueue,
		shellTransitions: opts.ShellTransitions,
		logger:           logger,
		tasks:            make(map[int32]surface.Handle),
	}
}

// OnTaskAppeared registers leash for the task and queues a reset of the
// surface back to fullscreen defaults. A task that is already registered is
// an upstream contract violation and panics with *DuplicateRegistrationError.
func (l *FullscreenTaskListener) OnTaskAppeared(info TaskInfo, leash surface.Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.tasks[info.TaskID]; ok {
		panic(&DuplicateRegistrationError{TaskID: info.TaskID})
	}
	l.logger.Debug("fullscreen task appeared", "task_id", info.TaskID, "leash", leash)
	l.tasks[info.TaskID] = leash

	bounds := info.Configuration.Bounds
	shellTransitions := l.shellTransitions
	l.syncQueue.RunInSync(func(t *surface.Transaction) {
		// Other modes (PiP in particular) leave position, crop, alpha and
		// scale behind on a reused surface.
		updateSurfacePosition(t, bounds, leash)
		t.SetWindowCrop(leash, nil)
		if !shellTransitions {
			t.SetAlpha(leash, 1)
			t.SetMatrix(leash, 1, 0, 0, 1)
			t.Show(leash)
		}
	})
}

// OnTaskVanished forgets the task. The compositor tears down the surface
// itself, so nothing is queued.
func (l *FullscreenTaskListener) OnTaskVanished(info TaskInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.tasks[info.TaskID]; !ok {
		l.logger.Error("task already vanished", "tag", fullscreenTag, "task_id", info.TaskID)
		return
	}
	delete(l.tasks, info.TaskID)
	l.logger.Debug("fullscreen task vanished", "task_id", info.TaskID)
}

// OnTaskInfoChanged repositions the task's surface to its current bounds.
func (l *FullscreenTaskListener) OnTaskInfoChanged(info TaskInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	leash, ok := l.tasks[info.TaskID]
	if !ok {
		l.logger.Error("changed task wasn't appeared or already vanished", "tag", fullscreenTag, "task_id", info.TaskID)
		return
	}

	bounds := info.Configuration.Bounds
	l.syncQueue.RunInSync(func(t *surface.Transaction) {
		// Bounds move with task level letterboxing.
		updateSurfacePosition(t, bounds, leash)
	})
}

// Dump writes a two line summary of the listener.
func (l *FullscreenTaskListener) Dump(w io.Writer, prefix string) {
	innerPrefix := prefix + "  "
	fmt.Fprintln(w, prefix+l.String())
	fmt.Fprintf(w, "%s%d Tasks\n", innerPrefix, l.TaskCount())
}

func (l *FullscreenTaskListener) String() string {
	return fullscreenTag + ":" + ListenerTypeFullscreen.String()
}

// TaskCount returns the number of registered tasks.
func (l *FullscreenTaskListener) TaskCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Tasks returns a copy of the registered task -> surface mapping.
func (l *FullscreenTaskListener) Tasks() map[int32]surface.Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[int32]surface.Handle, len(l.tasks))
	for id, h := range l.tasks {
		out[id] = h
	}
	return out
}

// updateSurfacePosition places the surface at the top-left of bounds.
func updateSurfacePosition(t *surface.Transaction, bounds surface.Rect, leash surface.Handle) {
	t.SetPosition(leash, bounds.Left, bounds.Top)
}
