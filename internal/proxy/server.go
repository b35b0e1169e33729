// Package proxy implements the host-facing MCP endpoint: it wires
// together the downstream sessions, the catalog and the core-tool suite
// behind one *server.MCPServer, and owns the startup/shutdown sequence
// (spec.md §4.5).
//
// Grounded on the host-facing server.MCPServer wrapper pattern in
// alexandrem-coral's internal/colony/mcp.Server, and on the
// diff-and-resync aggregator pattern used by the giantswarm-envctl and
// mcpproxy-go reference implementations for pushing a dynamically
// changing tool set into the SDK's own registered-tool table (AddTools /
// DeleteTools), whose built-in WithToolCapabilities(true) auto-emits
// notifications/tools/list_changed on every such call.
package proxy

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mcp-funnel/funnel/internal/catalog"
	"github.com/mcp-funnel/funnel/internal/config"
	"github.com/mcp-funnel/funnel/internal/coretool"
	"github.com/mcp-funnel/funnel/internal/downstream"
	"github.com/mcp-funnel/funnel/internal/logging"
)

// DefaultShutdownTimeout bounds how long Shutdown waits for downstream
// sessions to close before returning regardless (SPEC_FULL.md §11.3).
const DefaultShutdownTimeout = 5 * time.Second

// Proxy is the host-facing MCP server.
type Proxy struct {
	cfg             *config.ProxyConfig
	runID           string
	logDir          string
	shutdownTimeout time.Duration
	debug           bool

	mcpServer *server.MCPServer
	cat       *catalog.Catalog
	cctx      *coretool.Context

	sessMu   sync.RWMutex
	sessions map[string]*downstream.Session

	regMu      sync.Mutex
	registered map[string]bool

	log *log.Logger
}

// New constructs an unstarted Proxy. runID names this process's run for
// per-session log file naming; logDir is where those files are written.
// debug enables per-tool-call argument/timing logging on every downstream session
// (SPEC_FULL.md §11.3).
func New(cfg *config.ProxyConfig, runID, logDir string, shutdownTimeout time.Duration, debug bool) *Proxy {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	cat := catalog.New(cfg)
	return &Proxy{
		cfg:             cfg,
		runID:           runID,
		logDir:          logDir,
		shutdownTimeout: shutdownTimeout,
		debug:           debug,
		mcpServer:       server.NewMCPServer("mcp-funnel", "0.1.0", server.WithToolCapabilities(true)),
		cat:             cat,
		cctx:            coretool.NewContext(cat, cfg),
		sessions:        make(map[string]*downstream.Session),
		registered:      make(map[string]bool),
		log:             logging.New("Funnel"),
	}
}

// Startup performs the ordered sequence from spec.md §4.5: construct and
// connect downstream sessions, build the catalog, register core tools and
// the initial visible downstream tools. A per-session connect failure is
// logged and that session is simply absent from the catalog — it never
// aborts startup.
func (p *Proxy) Startup(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, spec := range p.cfg.Servers {
		sess := downstream.NewSession(spec, p.runID, p.logDir, p.debug)

		p.sessMu.Lock()
		p.sessions[spec.Name] = sess
		p.sessMu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sess.Connect(ctx); err != nil {
				p.log.Printf("server %q failed to start: %v", sess.Name(), err)
				return
			}
			tools, err := sess.Tools(ctx)
			if err != nil {
				p.log.Printf("server %q failed to list tools: %v", sess.Name(), err)
				return
			}
			p.cat.AddSession(sess, tools)
		}()
	}
	wg.Wait()

	for _, tool := range coretool.All() {
		if !tool.IsEnabled(p.cfg) {
			continue
		}
		t := tool
		p.mcpServer.AddTool(t.Descriptor(), p.coreHandler(t))
	}

	p.resync()
	return nil
}

// coreHandler adapts a coretool.Tool into the mcp-go handler signature and
// implements the notification-coalescing rule from spec.md §4.5/§9: after
// Handle returns, if it mutated the enable set, resync the downstream
// portion of the registered tool table (which the SDK turns into a
// tools/list_changed notification).
func (p *Proxy) coreHandler(t coretool.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := t.Handle(ctx, p.cctx, req)
		if p.cctx.TakeDirty() {
			p.resync()
		}
		return res, err
	}
}

// resync diffs the catalog's currently visible downstream tools against
// what is registered on the mcp-go server and reconciles the difference,
// mirroring the aggregator pattern's removeObsoleteItems/addNewItems pass.
func (p *Proxy) resync() {
	visible := p.cat.List()
	desired := make(map[string]*catalog.ToolRecord, len(visible))
	for _, rec := range visible {
		desired[rec.PrefixedName] = rec
	}

	p.regMu.Lock()
	defer p.regMu.Unlock()

	var toRemove []string
	for name := range p.registered {
		if _, ok := desired[name]; !ok {
			toRemove = append(toRemove, name)
		}
	}
	if len(toRemove) > 0 {
		p.mcpServer.DeleteTools(toRemove...)
		for _, name := range toRemove {
			delete(p.registered, name)
		}
	}

	var toAdd []server.ServerTool
	for name, rec := range desired {
		if p.registered[name] {
			continue
		}
		toAdd = append(toAdd, p.serverTool(rec))
		p.registered[name] = true
	}
	if len(toAdd) > 0 {
		p.mcpServer.AddTools(toAdd...)
	}
}

func (p *Proxy) serverTool(rec *catalog.ToolRecord) server.ServerTool {
	schema := rec.InputSchema
	if len(schema) == 0 {
		schema = json.RawMessage("{}")
	}
	tool := mcp.NewToolWithRawSchema(rec.PrefixedName, rec.Description, schema)
	session := rec.Session
	originalName := rec.OriginalName

	return server.ServerTool{
		Tool: tool,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result, err := session.Call(ctx, originalName, req.GetArguments())
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return result, nil
		},
	}
}

// Run performs Startup, serves the host transport over stdio until it
// closes, then shuts down every downstream session. It is the single
// entry point cmd/mcp-funnel's main calls.
func (p *Proxy) Run(ctx context.Context) error {
	if err := p.Startup(ctx); err != nil {
		return err
	}
	defer p.Shutdown()

	p.log.Printf("serving %d downstream server(s) over stdio", len(p.cfg.Servers))
	return server.ServeStdio(p.mcpServer)
}

// Shutdown closes every downstream session concurrently, bounded by
// shutdownTimeout.
func (p *Proxy) Shutdown() {
	p.sessMu.RLock()
	sessions := make([]*downstream.Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		sessions = append(sessions, s)
	}
	p.sessMu.RUnlock()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, s := range sessions {
			wg.Add(1)
			go func(s *downstream.Session) {
				defer wg.Done()
				if err := s.Close(); err != nil {
					p.log.Printf("server %q: close error: %v", s.Name(), err)
				}
			}(s)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(p.shutdownTimeout):
		p.log.Printf("shutdown timed out after %s, exiting anyway", p.shutdownTimeout)
	}
}
