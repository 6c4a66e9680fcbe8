// Package mcp exposes read-only daemon diagnostics as MCP tools.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/taskleash/internal/ipc"
	"github.com/1broseidon/taskleash/internal/tasks"
)

const (
	ServerName    = "taskleash"
	ServerVersion = "0.1.0"
)

// DaemonClient is the subset of the IPC client the tools need.
type DaemonClient interface {
	Dump(prefix string) (string, error)
	GetStatus() (*ipc.StatusData, error)
	ListTasks() ([]tasks.TrackedTask, error)
}

// Server is the MCP server for taskleash diagnostics.
type Server struct {
	mcpServer *mcpsdk.Server
	client    DaemonClient
}

// NewServer creates an MCP server that queries the daemon through client.
func NewServer(client DaemonClient) *Server {
	s := &Server{client: client}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "dump_state",
		Description: "Return the taskleash daemon's diagnostic dump: the task organizer summary followed by each task listener's label and tracked task count.",
	}, s.handleDumpState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "task_status",
		Description: "Return daemon status (tracked tasks, listeners, pending sync closures, shell transitions flag, uptime) and the list of tracked tasks with their bounds and surface handles.",
	}, s.handleTaskStatus)
}

func (s *Server) handleDumpState(_ context.Context, _ *mcpsdk.CallToolRequest, args DumpStateInput) (*mcpsdk.CallToolResult, DumpStateOutput, error) {
	text, err := s.client.Dump(args.Prefix)
	if err != nil {
		return nil, DumpStateOutput{}, fmt.Errorf("dump_state: %w", err)
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: text},
		},
	}, DumpStateOutput{Text: text}, nil
}

func (s *Server) handleTaskStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ TaskStatusInput) (*mcpsdk.CallToolResult, TaskStatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, TaskStatusOutput{}, fmt.Errorf("task_status: %w", err)
	}
	list, err := s.client.ListTasks()
	if err != nil {
		return nil, TaskStatusOutput{}, fmt.Errorf("task_status: %w", err)
	}
	if list == nil {
		list = []tasks.TrackedTask{}
	}
	return nil, TaskStatusOutput{Status: *status, Tasks: list}, nil
}
