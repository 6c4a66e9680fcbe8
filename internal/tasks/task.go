// Package tasks tracks controller-reported tasks and keeps their surfaces
// in sync through batched transactions.
package tasks

import (
	"fmt"
	"io"

	"github.com/1broseidon/taskleash/internal/surface"
)

// WindowingMode is the presentation mode the controller assigned to a task.
type WindowingMode string

const (
	WindowingModeUndefined   WindowingMode = "undefined"
	WindowingModeFullscreen  WindowingMode = "fullscreen"
	WindowingModeMultiWindow WindowingMode = "multi-window"
	WindowingModePinned      WindowingMode = "pinned" // picture-in-picture
)

// Configuration is the geometry/configuration part of a task snapshot.
type Configuration struct {
	WindowingMode WindowingMode  `json:"windowing_mode"`
	Bounds        surface.Rect   `json:"bounds"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// TaskInfo is the snapshot delivered with every lifecycle event. Listeners
// consume it to build transactions and never keep it.
type TaskInfo struct {
	TaskID        int32         `json:"task_id"`
	Configuration Configuration `json:"configuration"`
}

// ListenerType selects which listener a task is routed to.
type ListenerType int

const (
	ListenerTypeUndefined ListenerType = iota
	ListenerTypeFullscreen
	ListenerTypeMultiWindow
	ListenerTypePip
)

func (t ListenerType) String() string {
	switch t {
	case ListenerTypeFullscreen:
		return "TASK_LISTENER_TYPE_FULLSCREEN"
	case ListenerTypeMultiWindow:
		return "TASK_LISTENER_TYPE_MULTI_WINDOW"
	case ListenerTypePip:
		return "TASK_LISTENER_TYPE_PIP"
	default:
		return "TASK_LISTENER_TYPE_UNDEFINED"
	}
}

// ListenerTypeFor maps a windowing mode to the listener that owns it.
func ListenerTypeFor(mode WindowingMode) ListenerType {
	switch mode {
	case WindowingModeFullscreen:
		return ListenerTypeFullscreen
	case WindowingModeMultiWindow:
		return ListenerTypeMultiWindow
	case WindowingModePinned:
		return ListenerTypePip
	default:
		return ListenerTypeUndefined
	}
}

// TaskListener receives lifecycle events for the tasks routed to it.
type TaskListener interface {
	OnTaskAppeared(info TaskInfo, leash surface.Handle)
	OnTaskVanished(info TaskInfo)
	OnTaskInfoChanged(info TaskInfo)
	Dump(w io.Writer, prefix string)
	String() string
}

// SyncQueue defers surface mutations into the next atomically applied batch.
type SyncQueue interface {
	RunInSync(fn func(t *surface.Transaction))
}

// DuplicateRegistrationError is the panic value raised when a task appears
// twice without vanishing in between.
type DuplicateRegistrationError struct {
	TaskID int32
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("task appeared more than once: #%d", e.TaskID)
}
