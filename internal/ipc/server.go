package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/taskleash/internal/surface"
	"github.com/1broseidon/taskleash/internal/tasks"
)

// requestTimeout bounds a single request/response exchange on either end.
const requestTimeout = 5 * time.Second

// Organizer is the task side of the daemon the server feeds events into.
type Organizer interface {
	OnTaskAppeared(info tasks.TaskInfo, leash surface.Handle)
	OnTaskVanished(info tasks.TaskInfo)
	OnTaskInfoChanged(info tasks.TaskInfo)
	Dump(w io.Writer, prefix string)
	TaskCount() int
	ListenerCount() int
	Snapshot() []tasks.TrackedTask
}

// Syncer is the sync queue as seen by the server.
type Syncer interface {
	Flush() error
	Pending() int
}

// ServerOptions configures a Server.
type ServerOptions struct {
	ShellTransitions bool
	Logger           *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	socketPath       string
	listener         net.Listener
	organizer        Organizer
	syncer           Syncer
	shellTransitions bool
	logger           *slog.Logger
	readTimeout      time.Duration
	startTime        time.Time
	shuttingDown     bool
	shutdownMu       sync.Mutex
}

// NewServer creates a new IPC server listening on socketPath once started.
func NewServer(socketPath string, organizer Organizer, syncer Syncer, opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath:       socketPath,
		organizer:        organizer,
		syncer:           syncer,
		shellTransitions: opts.ShellTransitions,
		logger:           logger,
		readTimeout:      requestTimeout,
		startTime:        time.Now(),
	}
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection. A duplicate task
// appearance panics out of here and takes the daemon down with it.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
		s.logger.Warn("IPC set deadline error", "error", err)
		return
	}
	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	// Parse request
	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Handle command
	resp := s.handleCommand(req)

	// Send response
	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandTaskAppeared:
		return s.handleTaskAppeared(req.Payload)
	case CommandTaskVanished:
		return s.handleTaskVanished(req.Payload)
	case CommandTaskInfoChanged:
		return s.handleTaskInfoChanged(req.Payload)
	case CommandDump:
		return s.handleDump(req.Payload)
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListTasks:
		return s.handleListTasks()
	case CommandSync:
		return s.handleSync()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleTaskAppeared(payload json.RawMessage) *Response {
	var req TaskAppearedPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid appeared payload: %v", err))
	}
	if req.Leash == 0 {
		return NewErrorResponse("leash is required")
	}

	s.organizer.OnTaskAppeared(req.Task, req.Leash)

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleTaskVanished(payload json.RawMessage) *Response {
	var req TaskPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid vanished payload: %v", err))
	}

	s.organizer.OnTaskVanished(req.Task)

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleTaskInfoChanged(payload json.RawMessage) *Response {
	var req TaskPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid info-changed payload: %v", err))
	}

	s.organizer.OnTaskInfoChanged(req.Task)

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleDump(payload json.RawMessage) *Response {
	var req DumpPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid dump payload: %v", err))
		}
	}

	var b strings.Builder
	s.organizer.Dump(&b, req.Prefix)

	resp, _ := NewOKResponse(DumpData{Text: b.String()})
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		Tasks:            s.organizer.TaskCount(),
		Listeners:        s.organizer.ListenerCount(),
		PendingSync:      s.syncer.Pending(),
		ShellTransitions: s.shellTransitions,
		UptimeSeconds:    int64(time.Since(s.startTime).Seconds()),
		DaemonRunning:    true,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleListTasks() *Response {
	resp, _ := NewOKResponse(TasksData{Tasks: s.organizer.Snapshot()})
	return resp
}

func (s *Server) handleSync() *Response {
	if err := s.syncer.Flush(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to sync: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
