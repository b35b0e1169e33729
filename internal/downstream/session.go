// Package downstream manages the lifecycle of a single downstream MCP
// server process: spawning it, performing the MCP initialize handshake,
// listing its tools and forwarding tool calls to it.
//
// Session is grounded on the teacher's internal/mcp.Client (the mcp-go SDK
// wrapper), generalized to the stdio-only, map[string]string-env ServerSpec
// shape this proxy's configuration uses (spec.md §3) — the teacher's SSE
// transport branch has no equivalent in that data model and is dropped.
package downstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	sdkclient "github.com/mark3labs/mcp-go/client"
	sdktransport "github.com/mark3labs/mcp-go/client/transport"
	sdkmcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/mcp-funnel/funnel/internal/config"
	"github.com/mcp-funnel/funnel/internal/logging"
)

// State is the lifecycle state of a Session (spec.md §4: downstream
// session state machine).
type State int

const (
	StateStarting State = iota
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ToolInfo is a single tool's metadata as reported by the downstream
// server, before the catalog applies its "<server>__<tool>" prefix.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Session owns one downstream MCP server's process and connection. It is
// safe for concurrent use.
type Session struct {
	mu     sync.RWMutex
	spec   config.ServerSpec
	state  State
	err    error
	inner  sdkclient.MCPClient
	logger *log.Logger // set once Connect opens the per-run log file

	debug bool

	log *logRouter
}

// logRouter lazily opens the per-run log file the first time it is needed,
// mirroring the teacher's habit of writing per-component output to disk
// rather than interleaving it with the host process's own logs.
type logRouter struct {
	dir    string
	runID  string
	server string
	file   *os.File
}

// NewSession constructs an unstarted Session for spec. runID identifies the
// current proxy run (shared by every Session started from the same
// process) and is used to name this server's stderr log file:
// "run-<runID>-<serverName>.stderr.log" under logDir. debug turns on
// argument/timing logging of every Call to that same file (SPEC_FULL.md §11.3).
func NewSession(spec config.ServerSpec, runID, logDir string, debug bool) *Session {
	return &Session{
		spec:  spec,
		state: StateStarting,
		debug: debug,
		log:   &logRouter{dir: logDir, runID: runID, server: spec.Name},
	}
}

// Name returns the server name this session was configured with.
func (s *Session) Name() string {
	return s.spec.Name
}

// State reports the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the error that caused a StateFailed transition, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Connect spawns the downstream server's process and performs the MCP
// initialize handshake. On failure the session transitions to StateFailed
// and the error is both returned and retained (Err). The child's own stderr
// is copied into the same per-run log file as this Session's own log lines,
// so "run-<runID>-<serverName>.stderr.log" actually contains what its name
// promises (spec.md §4.2, §6 "Resource discipline").
func (s *Session) Connect(ctx context.Context) error {
	runLog, err := s.log.open()
	if err != nil {
		return s.fail(fmt.Errorf("downstream: open log for %q: %w", s.spec.Name, err))
	}
	logger := logging.NewTo(runLog, "Downstream:"+s.spec.Name)
	logger.Printf("starting %q %v", s.spec.Command, s.spec.Args)

	env := os.Environ()
	for k, v := range s.spec.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	stdioTransport := sdktransport.NewStdio(s.spec.Command, env, s.spec.Args...)
	cli := sdkclient.NewClient(stdioTransport)
	if err := cli.Start(ctx); err != nil {
		logger.Printf("start failed: %v", err)
		return s.fail(fmt.Errorf("downstream: start server %q: %w", s.spec.Name, err))
	}
	go io.Copy(runLog, stdioTransport.Stderr())

	_, err = cli.Initialize(ctx, sdkmcp.InitializeRequest{
		Params: sdkmcp.InitializeParams{
			ProtocolVersion: sdkmcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: sdkmcp.Implementation{
				Name:    "mcp-funnel",
				Version: "0.1.0",
			},
		},
	})
	if err != nil {
		_ = cli.Close()
		logger.Printf("initialize failed: %v", err)
		return s.fail(fmt.Errorf("downstream: initialize server %q: %w", s.spec.Name, err))
	}

	logger.Printf("ready")
	s.mu.Lock()
	s.inner = cli
	s.logger = logger
	s.state = StateReady
	s.mu.Unlock()
	return nil
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.state = StateFailed
	s.err = err
	s.mu.Unlock()
	return err
}

// Tools lists the tools this downstream server currently exposes, in its
// own (unprefixed) naming.
func (s *Session) Tools(ctx context.Context) ([]ToolInfo, error) {
	cli, err := s.client()
	if err != nil {
		return nil, err
	}

	result, err := cli.ListTools(ctx, sdkmcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("downstream: list tools on %q: %w", s.spec.Name, err)
	}

	tools := make([]ToolInfo, 0, len(result.Tools))
	for _, t := range result.Tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			schema = json.RawMessage("{}")
		}
		tools = append(tools, ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return tools, nil
}

// Call invokes originalName (the downstream server's own tool name, with
// the "<server>__" prefix already stripped by the caller) with args and
// returns the downstream CallToolResult verbatim — content blocks, IsError
// and Meta intact — so callers can pass it straight back to the host
// without lossy reconstruction (spec.md §4.2, §4.4).
func (s *Session) Call(ctx context.Context, originalName string, args map[string]any) (*sdkmcp.CallToolResult, error) {
	cli, err := s.client()
	if err != nil {
		return nil, err
	}

	req := sdkmcp.CallToolRequest{}
	req.Params.Name = originalName
	req.Params.Arguments = args

	logger := s.debugLogger()
	var start time.Time
	if logger != nil {
		start = time.Now()
		logger.Printf("call %q args=%v", originalName, args)
	}

	result, err := cli.CallTool(ctx, req)
	if logger != nil {
		logger.Printf("call %q took %s", originalName, time.Since(start))
	}
	if err != nil {
		return nil, &ToolInvocationError{Name: originalName, Server: s.spec.Name, Message: err.Error()}
	}
	return result, nil
}

// debugLogger returns this session's per-run logger when debug logging is
// enabled, or nil once disabled or before Connect has opened it.
func (s *Session) debugLogger() *log.Logger {
	if !s.debug {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

func (s *Session) client() (sdkclient.MCPClient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateClosed {
		return nil, &SessionClosedError{Server: s.spec.Name}
	}
	if s.inner == nil {
		return nil, fmt.Errorf("downstream: session %q is not connected (state=%s)", s.spec.Name, s.state)
	}
	return s.inner, nil
}

// Close terminates the downstream process and releases resources. It is
// safe to call multiple times.
func (s *Session) Close() error {
	s.mu.Lock()
	inner := s.inner
	s.inner = nil
	s.state = StateClosed
	s.mu.Unlock()

	s.log.close()

	if inner == nil {
		return nil
	}
	return inner.Close()
}

func (r *logRouter) open() (*os.File, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("run-%s-%s.stderr.log", r.runID, r.server)
	f, err := os.OpenFile(filepath.Join(r.dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	r.file = f
	return f, nil
}

func (r *logRouter) close() {
	if r.file != nil {
		_ = r.file.Close()
	}
}
