package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/taskleash/internal/ipc"
	"github.com/1broseidon/taskleash/internal/tasks"
)

var (
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// renderStatus formats daemon status and the task table. Styling is only
// applied when color is true.
func renderStatus(status *ipc.StatusData, list []tasks.TrackedTask, color bool) string {
	label := func(s string) string {
		if color {
			return labelStyle.Render(s)
		}
		return s
	}
	value := func(v any) string {
		s := fmt.Sprint(v)
		if color {
			return valueStyle.Render(s)
		}
		return s
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", label("daemon_running:   "), value(status.DaemonRunning))
	fmt.Fprintf(&b, "%s %s\n", label("tasks:            "), value(status.Tasks))
	fmt.Fprintf(&b, "%s %s\n", label("listeners:        "), value(status.Listeners))
	fmt.Fprintf(&b, "%s %s\n", label("pending_sync:     "), value(status.PendingSync))
	fmt.Fprintf(&b, "%s %s\n", label("shell_transitions:"), value(status.ShellTransitions))
	fmt.Fprintf(&b, "%s %s\n", label("uptime_seconds:   "), value(status.UptimeSeconds))

	if len(list) == 0 {
		return b.String()
	}

	header := fmt.Sprintf("%-8s %-13s %-22s %-10s %s", "TASK", "MODE", "BOUNDS", "LEASH", "LISTENER")
	if color {
		header = headerStyle.Render(header)
	}
	b.WriteString("\n" + header + "\n")
	for _, t := range list {
		listener := t.Listener
		if listener == "" {
			listener = "-"
		}
		fmt.Fprintf(&b, "%-8d %-13s %-22s 0x%-8x %s\n", t.TaskID, t.WindowingMode, t.Bounds, uint32(t.Leash), listener)
	}
	return b.String()
}
