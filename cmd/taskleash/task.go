package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/taskleash/internal/ipc"
	"github.com/1broseidon/taskleash/internal/surface"
	"github.com/1broseidon/taskleash/internal/tasks"
)

type taskFlags struct {
	id     int
	bounds string
	mode   string
	extra  string
	leash  uint
}

func runTaskEvent(event string, args []string) int {
	fs := flag.NewFlagSet(event, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var f taskFlags
	fs.IntVar(&f.id, "id", -1, "Task id (required)")
	fs.StringVar(&f.bounds, "bounds", "", "Task bounds as left,top,right,bottom")
	fs.StringVar(&f.mode, "mode", string(tasks.WindowingModeFullscreen), "Windowing mode: fullscreen, multi-window, pinned")
	fs.StringVar(&f.extra, "extra", "", "Extra configuration as a JSON object")
	if event == "appear" {
		fs.UintVar(&f.leash, "leash", 0, "X11 window id of the task surface (required)")
	}
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: taskleash %s --id N [options]\n", event)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Report a task lifecycle event to the daemon, acting as the controller.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	info, err := f.taskInfo()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	switch event {
	case "appear":
		leash, leashErr := f.leashHandle()
		if leashErr != nil {
			fmt.Fprintln(os.Stderr, leashErr)
			return 2
		}
		err = client.TaskAppeared(info, leash)
	case "change":
		err = client.TaskInfoChanged(info)
	case "vanish":
		err = client.TaskVanished(info)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func (f taskFlags) taskInfo() (tasks.TaskInfo, error) {
	if f.id < 0 {
		return tasks.TaskInfo{}, fmt.Errorf("--id is required")
	}
	if f.id > math.MaxInt32 {
		return tasks.TaskInfo{}, fmt.Errorf("--id %d is out of range (max %d)", f.id, math.MaxInt32)
	}

	mode := tasks.WindowingMode(strings.TrimSpace(f.mode))
	switch mode {
	case tasks.WindowingModeFullscreen, tasks.WindowingModeMultiWindow, tasks.WindowingModePinned, tasks.WindowingModeUndefined:
	default:
		return tasks.TaskInfo{}, fmt.Errorf("unknown windowing mode %q", f.mode)
	}

	var bounds surface.Rect
	if f.bounds != "" {
		var err error
		if bounds, err = parseBounds(f.bounds); err != nil {
			return tasks.TaskInfo{}, err
		}
	}

	var extra map[string]any
	if f.extra != "" {
		if err := json.Unmarshal([]byte(f.extra), &extra); err != nil {
			return tasks.TaskInfo{}, fmt.Errorf("invalid --extra: %w", err)
		}
	}

	return tasks.TaskInfo{
		TaskID: int32(f.id),
		Configuration: tasks.Configuration{
			WindowingMode: mode,
			Bounds:        bounds,
			Extra:         extra,
		},
	}, nil
}

func (f taskFlags) leashHandle() (surface.Handle, error) {
	if f.leash == 0 {
		return 0, fmt.Errorf("--leash is required")
	}
	if uint64(f.leash) > math.MaxUint32 {
		return 0, fmt.Errorf("--leash %d is not an X11 window id", f.leash)
	}
	return surface.Handle(f.leash), nil
}

// parseBounds parses "left,top,right,bottom".
func parseBounds(s string) (surface.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return surface.Rect{}, fmt.Errorf("bounds must be left,top,right,bottom: %q", s)
	}
	var vals [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return surface.Rect{}, fmt.Errorf("invalid bounds value %q: %w", p, err)
		}
		vals[i] = v
	}
	r := surface.Rect{Left: vals[0], Top: vals[1], Right: vals[2], Bottom: vals[3]}
	if r.Right < r.Left || r.Bottom < r.Top {
		return surface.Rect{}, fmt.Errorf("bounds %s are inverted", r)
	}
	return r, nil
}
