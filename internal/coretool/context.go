// Package coretool implements the fixed set of proxy-native tools
// (discover_tools_by_words, get_tool_schema, bridge_tool_request,
// load_toolset, unload_toolset) and the context object they share
// (spec.md §4.4).
package coretool

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcp-funnel/funnel/internal/catalog"
	"github.com/mcp-funnel/funnel/internal/config"
	"github.com/mcp-funnel/funnel/internal/match"
)

// Tool is the common contract every core tool implements (spec.md §4.4).
// A Tool is constructed once at startup and registered if IsEnabled holds;
// it never captures a *Context at construction time — Handle always
// receives it fresh.
type Tool interface {
	Name() string
	Descriptor() mcp.Tool
	IsEnabled(cfg *config.ProxyConfig) bool
	Handle(ctx context.Context, cctx *Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Context is the shared handle passed by reference into every core tool's
// Handle call: a read handle to the catalog/config, plus the
// enableTools/disableTools mutators spec.md §4.4 calls for.
type Context struct {
	Catalog *catalog.Catalog
	Config  *config.ProxyConfig

	mu    sync.Mutex
	dirty bool
}

// NewContext constructs the shared core-tool context for one proxy run.
func NewContext(cat *catalog.Catalog, cfg *config.ProxyConfig) *Context {
	return &Context{Catalog: cat, Config: cfg}
}

// EnableTools adds prefixedNames to the dynamic-enable set and marks the
// context dirty so the proxy emits a tools/list_changed notification after
// the current handler returns (spec.md §4.5, notification coalescing).
func (c *Context) EnableTools(prefixedNames []string) {
	c.Catalog.Enable(prefixedNames)
	c.markDirty()
}

// DisableTools is the symmetric removal.
func (c *Context) DisableTools(prefixedNames []string) {
	c.Catalog.Disable(prefixedNames)
	c.markDirty()
}

func (c *Context) markDirty() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// TakeDirty reports whether the enable set was mutated since the last call
// and resets the flag. The proxy server calls this once after every
// Handle invocation to decide whether to emit a notification.
func (c *Context) TakeDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.dirty
	c.dirty = false
	return d
}

// defaultIsEnabled implements the exposeCoreTools gating common to every
// core tool: absent filter enables everything, an explicit (possibly
// empty) list is matched against name like any other pattern list.
func defaultIsEnabled(name string, cfg *config.ProxyConfig) bool {
	if cfg.ExposeCoreTools == nil {
		return true
	}
	return match.AnyMatches(name, *cfg.ExposeCoreTools)
}
