package tasks

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/1broseidon/taskleash/internal/surface"
)

type fakeListener struct {
	name string

	mu     sync.Mutex
	events []string
}

func (f *fakeListener) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fmt.Sprintf(format, args...))
}

func (f *fakeListener) OnTaskAppeared(info TaskInfo, leash surface.Handle) {
	f.record("appeared #%d leash=%d", info.TaskID, leash)
}

func (f *fakeListener) OnTaskVanished(info TaskInfo) {
	f.record("vanished #%d", info.TaskID)
}

func (f *fakeListener) OnTaskInfoChanged(info TaskInfo) {
	f.record("changed #%d", info.TaskID)
}

func (f *fakeListener) Dump(w io.Writer, prefix string) {
	fmt.Fprintln(w, prefix+f.name)
}

func (f *fakeListener) String() string { return f.name }

func (f *fakeListener) got() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func modeInfo(id int32, mode WindowingMode) TaskInfo {
	return TaskInfo{
		TaskID: id,
		Configuration: Configuration{
			WindowingMode: mode,
			Bounds:        surface.Rect{Left: 1, Top: 2, Right: 30, Bottom: 40},
		},
	}
}

func assertEvents(t *testing.T, l *fakeListener, want ...string) {
	t.Helper()
	got := l.got()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("%s events = %v, want %v", l.name, got, want)
	}
}

func TestOrganizer_RoutesByWindowingMode(t *testing.T) {
	o := NewOrganizer(nil)
	full := &fakeListener{name: "full"}
	pip := &fakeListener{name: "pip"}
	if err := o.AddListener(ListenerTypeFullscreen, full); err != nil {
		t.Fatalf("add fullscreen: %v", err)
	}
	if err := o.AddListener(ListenerTypePip, pip); err != nil {
		t.Fatalf("add pip: %v", err)
	}

	o.OnTaskAppeared(modeInfo(1, WindowingModeFullscreen), 100)
	o.OnTaskAppeared(modeInfo(2, WindowingModePinned), 200)
	o.OnTaskInfoChanged(modeInfo(1, WindowingModeFullscreen))
	o.OnTaskVanished(modeInfo(2, WindowingModePinned))

	assertEvents(t, full, "appeared #1 leash=100", "changed #1")
	assertEvents(t, pip, "appeared #2 leash=200", "vanished #2")
	if o.TaskCount() != 1 {
		t.Fatalf("expected 1 tracked task, got %d", o.TaskCount())
	}
}

func TestOrganizer_ModeChangeMovesTaskBetweenListeners(t *testing.T) {
	o := NewOrganizer(nil)
	full := &fakeListener{name: "full"}
	pip := &fakeListener{name: "pip"}
	_ = o.AddListener(ListenerTypeFullscreen, full)
	_ = o.AddListener(ListenerTypePip, pip)

	o.OnTaskAppeared(modeInfo(5, WindowingModePinned), 55)
	o.OnTaskInfoChanged(modeInfo(5, WindowingModeFullscreen))

	assertEvents(t, pip, "appeared #5 leash=55", "vanished #5")
	assertEvents(t, full, "appeared #5 leash=55")

	snap := o.Snapshot()
	if len(snap) != 1 || snap[0].Listener != "full" || snap[0].WindowingMode != WindowingModeFullscreen {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestOrganizer_UnroutedTasksAreTracked(t *testing.T) {
	o := NewOrganizer(nil)
	o.OnTaskAppeared(modeInfo(9, WindowingModeMultiWindow), 90)

	snap := o.Snapshot()
	if len(snap) != 1 || snap[0].Listener != "" || snap[0].Leash != 90 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	// A late listener sees the task replayed.
	multi := &fakeListener{name: "multi"}
	if err := o.AddListener(ListenerTypeMultiWindow, multi); err != nil {
		t.Fatalf("add: %v", err)
	}
	assertEvents(t, multi, "appeared #9 leash=90")
}

func TestOrganizer_AddListenerRejectsDuplicatesAndUndefined(t *testing.T) {
	o := NewOrganizer(nil)
	if err := o.AddListener(ListenerTypeFullscreen, &fakeListener{name: "a"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := o.AddListener(ListenerTypeFullscreen, &fakeListener{name: "b"}); err == nil {
		t.Fatal("expected error for second fullscreen listener")
	}
	if err := o.AddListener(ListenerTypeUndefined, &fakeListener{name: "c"}); err == nil {
		t.Fatal("expected error for undefined listener type")
	}
}

func TestOrganizer_DuplicateAppearPanics(t *testing.T) {
	o := NewOrganizer(nil)
	full := &fakeListener{name: "full"}
	_ = o.AddListener(ListenerTypeFullscreen, full)
	o.OnTaskAppeared(modeInfo(1, WindowingModeFullscreen), 10)

	defer func() {
		r := recover()
		if _, ok := r.(*DuplicateRegistrationError); !ok {
			t.Fatalf("expected *DuplicateRegistrationError panic, got %v", r)
		}
		assertEvents(t, full, "appeared #1 leash=10")
	}()
	o.OnTaskAppeared(modeInfo(1, WindowingModeFullscreen), 11)
}

func TestOrganizer_UnknownTaskEventsAreNoOps(t *testing.T) {
	o := NewOrganizer(nil)
	full := &fakeListener{name: "full"}
	_ = o.AddListener(ListenerTypeFullscreen, full)

	o.OnTaskVanished(modeInfo(4, WindowingModeFullscreen))
	o.OnTaskInfoChanged(modeInfo(4, WindowingModeFullscreen))

	assertEvents(t, full)
	if o.TaskCount() != 0 {
		t.Fatalf("expected no tasks, got %d", o.TaskCount())
	}
}

func TestOrganizer_DumpIncludesListeners(t *testing.T) {
	o := NewOrganizer(nil)
	q := &recordingQueue{}
	_ = o.AddListener(ListenerTypeFullscreen, NewFullscreenTaskListener(q, FullscreenOptions{}))
	o.OnTaskAppeared(modeInfo(1, WindowingModeFullscreen), 10)

	var b strings.Builder
	o.Dump(&b, "")
	want := strings.Join([]string{
		"TaskOrganizer",
		"  1 Tasks, 1 Listeners",
		"  FullscreenTaskListener:TASK_LISTENER_TYPE_FULLSCREEN",
		"    1 Tasks",
		"",
	}, "\n")
	if b.String() != want {
		t.Fatalf("dump = %q, want %q", b.String(), want)
	}
}
