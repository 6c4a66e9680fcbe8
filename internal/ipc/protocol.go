package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/taskleash/internal/surface"
	"github.com/1broseidon/taskleash/internal/tasks"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandTaskAppeared    CommandType = "TASK_APPEARED"
	CommandTaskVanished    CommandType = "TASK_VANISHED"
	CommandTaskInfoChanged CommandType = "TASK_INFO_CHANGED"
	CommandDump            CommandType = "DUMP"
	CommandGetStatus       CommandType = "GET_STATUS"
	CommandListTasks       CommandType = "LIST_TASKS"
	CommandSync            CommandType = "SYNC"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// TaskAppearedPayload is sent by the controller when a task gets a surface.
type TaskAppearedPayload struct {
	Task  tasks.TaskInfo `json:"task"`
	Leash surface.Handle `json:"leash"`
}

// TaskPayload carries the snapshot for vanish and info-changed events.
type TaskPayload struct {
	Task tasks.TaskInfo `json:"task"`
}

// DumpPayload is the optional payload for DUMP.
type DumpPayload struct {
	Prefix string `json:"prefix,omitempty"`
}

// DumpData is the text returned by DUMP.
type DumpData struct {
	Text string `json:"text"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Tasks            int   `json:"tasks"`
	Listeners        int   `json:"listeners"`
	PendingSync      int   `json:"pending_sync"`
	ShellTransitions bool  `json:"shell_transitions"`
	UptimeSeconds    int64 `json:"uptime_seconds"`
	DaemonRunning    bool  `json:"daemon_running"`
}

// TasksData represents the data returned by LIST_TASKS
type TasksData struct {
	Tasks []tasks.TrackedTask `json:"tasks"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
