package mcp

import (
	"github.com/1broseidon/taskleash/internal/ipc"
	"github.com/1broseidon/taskleash/internal/tasks"
)

// DumpStateInput is the input for the dump_state tool.
type DumpStateInput struct {
	Prefix string `json:"prefix,omitempty" jsonschema:"Indentation prefix prepended to every dump line (default: none)"`
}

// DumpStateOutput is the output for the dump_state tool.
type DumpStateOutput struct {
	Text string `json:"text"`
}

// TaskStatusInput is the input for the task_status tool.
type TaskStatusInput struct{}

// TaskStatusOutput is the output for the task_status tool.
type TaskStatusOutput struct {
	Status ipc.StatusData      `json:"status"`
	Tasks  []tasks.TrackedTask `json:"tasks"`
}
