package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/taskleash/internal/runtimepath"
	"github.com/1broseidon/taskleash/internal/surface"
	"github.com/1broseidon/taskleash/internal/tasks"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client for the default socket
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithPath(socketPath)
}

// NewClientWithPath creates a client for an explicit socket path.
func NewClientWithPath(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    requestTimeout,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	// Connect to socket
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	// Set deadline
	conn.SetDeadline(time.Now().Add(c.timeout))

	// Marshal request
	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Send request
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// Read response
	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Parse response
	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check for error response
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) sendPayload(cmd CommandType, payload any) (*Response, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}
	return c.sendRequest(req)
}

// TaskAppeared reports a new task and its surface to the daemon.
func (c *Client) TaskAppeared(info tasks.TaskInfo, leash surface.Handle) error {
	_, err := c.sendPayload(CommandTaskAppeared, TaskAppearedPayload{Task: info, Leash: leash})
	return err
}

// TaskVanished reports that a task is gone.
func (c *Client) TaskVanished(info tasks.TaskInfo) error {
	_, err := c.sendPayload(CommandTaskVanished, TaskPayload{Task: info})
	return err
}

// TaskInfoChanged reports a new snapshot for a known task.
func (c *Client) TaskInfoChanged(info tasks.TaskInfo) error {
	_, err := c.sendPayload(CommandTaskInfoChanged, TaskPayload{Task: info})
	return err
}

// Dump retrieves the daemon's textual state dump.
func (c *Client) Dump(prefix string) (string, error) {
	resp, err := c.sendPayload(CommandDump, DumpPayload{Prefix: prefix})
	if err != nil {
		return "", err
	}

	var data DumpData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", fmt.Errorf("failed to parse dump data: %w", err)
	}
	return data.Text, nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendPayload(CommandGetStatus, nil)
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// ListTasks retrieves the tasks tracked by the daemon.
func (c *Client) ListTasks() ([]tasks.TrackedTask, error) {
	resp, err := c.sendPayload(CommandListTasks, nil)
	if err != nil {
		return nil, err
	}

	var data TasksData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse tasks data: %w", err)
	}
	return data.Tasks, nil
}

// Sync asks the daemon to apply pending surface updates now.
func (c *Client) Sync() error {
	_, err := c.sendPayload(CommandSync, nil)
	return err
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
