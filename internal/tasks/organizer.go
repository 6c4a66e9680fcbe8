package tasks

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/taskleash/internal/surface"
)

// TrackedTask is a read-only view of a task known to the organizer.
type TrackedTask struct {
	TaskID        int32          `json:"task_id"`
	WindowingMode WindowingMode  `json:"windowing_mode"`
	Bounds        surface.Rect   `json:"bounds"`
	Leash         surface.Handle `json:"leash"`
	Listener      string         `json:"listener"`
}

type trackedTask struct {
	info         TaskInfo
	leash        surface.Handle
	listenerType ListenerType
}

// Organizer receives every lifecycle event from the controller and routes
// it to the listener registered for the task's windowing mode.
type Organizer struct {
	logger *slog.Logger

	mu        sync.Mutex
	listeners map[ListenerType]TaskListener
	tasks     map[int32]*trackedTask
}

// NewOrganizer creates an organizer with no listeners.
func NewOrganizer(logger *slog.Logger) *Organizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Organizer{
		logger:    logger,
		listeners: make(map[ListenerType]TaskListener),
		tasks:     make(map[int32]*trackedTask),
	}
}

// AddListener registers listener for typ. Tasks already tracked for that
// type are replayed to it as appearances.
func (o *Organizer) AddListener(typ ListenerType, listener TaskListener) error {
	if typ == ListenerTypeUndefined {
		return fmt.Errorf("cannot register listener for %s", typ)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.listeners[typ]; ok {
		return fmt.Errorf("listener for %s already exists: %s", typ, existing)
	}
	o.listeners[typ] = listener

	for _, id := range o.sortedIDs() {
		task := o.tasks[id]
		if task.listenerType == typ {
			listener.OnTaskAppeared(task.info, task.leash)
		}
	}
	return nil
}

// OnTaskAppeared starts tracking the task and forwards it to its listener.
func (o *Organizer) OnTaskAppeared(info TaskInfo, leash surface.Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.tasks[info.TaskID]; ok {
		panic(&DuplicateRegistrationError{TaskID: info.TaskID})
	}

	typ := ListenerTypeFor(info.Configuration.WindowingMode)
	o.logger.Debug("task appeared", "task_id", info.TaskID, "listener", typ.String())

	if listener, ok := o.listeners[typ]; ok {
		listener.OnTaskAppeared(info, leash)
	}
	o.tasks[info.TaskID] = &trackedTask{info: info, leash: leash, listenerType: typ}
}

// OnTaskVanished stops tracking the task.
func (o *Organizer) OnTaskVanished(info TaskInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()

	task, ok := o.tasks[info.TaskID]
	if !ok {
		o.logger.Error("vanished task is not tracked", "task_id", info.TaskID)
		return
	}
	delete(o.tasks, info.TaskID)
	o.logger.Debug("task vanished", "task_id", info.TaskID)

	if listener, ok := o.listeners[task.listenerType]; ok {
		listener.OnTaskVanished(info)
	}
}

// OnTaskInfoChanged forwards the new snapshot. When the windowing mode moves
// the task to another listener, the old listener sees a vanish and the new
// one an appearance with the same leash.
func (o *Organizer) OnTaskInfoChanged(info TaskInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()

	task, ok := o.tasks[info.TaskID]
	if !ok {
		o.logger.Error("changed task is not tracked", "task_id", info.TaskID)
		return
	}
	task.info = info

	newType := ListenerTypeFor(info.Configuration.WindowingMode)
	if newType == task.listenerType {
		if listener, ok := o.listeners[newType]; ok {
			listener.OnTaskInfoChanged(info)
		}
		return
	}

	o.logger.Debug("task changed listener",
		"task_id", info.TaskID,
		"from", task.listenerType.String(),
		"to", newType.String())

	if listener, ok := o.listeners[task.listenerType]; ok {
		listener.OnTaskVanished(info)
	}
	task.listenerType = newType
	if listener, ok := o.listeners[newType]; ok {
		listener.OnTaskAppeared(info, task.leash)
	}
}

// Dump writes the organizer summary followed by each listener's dump.
func (o *Organizer) Dump(w io.Writer, prefix string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	innerPrefix := prefix + "  "
	fmt.Fprintln(w, prefix+"TaskOrganizer")
	fmt.Fprintf(w, "%s%d Tasks, %d Listeners\n", innerPrefix, len(o.tasks), len(o.listeners))

	types := make([]ListenerType, 0, len(o.listeners))
	for typ := range o.listeners {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, typ := range types {
		o.listeners[typ].Dump(w, innerPrefix)
	}
}

// TaskCount returns the number of tracked tasks across all listeners.
func (o *Organizer) TaskCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.tasks)
}

// ListenerCount returns the number of registered listeners.
func (o *Organizer) ListenerCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.listeners)
}

// Snapshot returns the tracked tasks ordered by task id.
func (o *Organizer) Snapshot() []TrackedTask {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]TrackedTask, 0, len(o.tasks))
	for _, id := range o.sortedIDs() {
		task := o.tasks[id]
		name := ""
		if listener, ok := o.listeners[task.listenerType]; ok {
			name = listener.String()
		}
		out = append(out, TrackedTask{
			TaskID:        id,
			WindowingMode: task.info.Configuration.WindowingMode,
			Bounds:        task.info.Configuration.Bounds,
			Leash:         task.leash,
			Listener:      name,
		})
	}
	return out
}

func (o *Organizer) sortedIDs() []int32 {
	ids := make([]int32, 0, len(o.tasks))
	for id := range o.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
