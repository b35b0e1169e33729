package coretool

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcp-funnel/funnel/internal/catalog"
	"github.com/mcp-funnel/funnel/internal/config"
)

// LoadToolset and UnloadToolset are only registered when
// enableDynamicDiscovery is set (spec.md §4.4); IsEnabled encodes that
// gate in addition to the common exposeCoreTools filter.

type LoadToolset struct{}

func (LoadToolset) Name() string { return "load_toolset" }

func (LoadToolset) Descriptor() mcp.Tool {
	return mcp.NewTool("load_toolset",
		mcp.WithDescription("Enable one or more hidden tools by prefixed name (bare names resolve only when hackyDiscovery is on), making them visible in the catalog."),
		mcp.WithArray("tools", mcp.Required(), mcp.Description("Tool names to enable.")),
	)
}

func (LoadToolset) IsEnabled(cfg *config.ProxyConfig) bool {
	return cfg.EnableDynamicDiscovery && defaultIsEnabled("load_toolset", cfg)
}

func (LoadToolset) Handle(_ context.Context, cctx *Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requested, err := requireStringArray(req, "tools")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	loaded, notFound := resolveBatch(cctx.Catalog, requested)
	if len(loaded) > 0 {
		cctx.EnableTools(loaded)
	}
	return mcp.NewToolResultText(toolsetSummary("loaded", loaded, notFound)), nil
}

type UnloadToolset struct{}

func (UnloadToolset) Name() string { return "unload_toolset" }

func (UnloadToolset) Descriptor() mcp.Tool {
	return mcp.NewTool("unload_toolset",
		mcp.WithDescription("Disable one or more tools, hiding them from the catalog again."),
		mcp.WithArray("tools", mcp.Required(), mcp.Description("Tool names to disable.")),
	)
}

func (UnloadToolset) IsEnabled(cfg *config.ProxyConfig) bool {
	return cfg.EnableDynamicDiscovery && defaultIsEnabled("unload_toolset", cfg)
}

func (UnloadToolset) Handle(_ context.Context, cctx *Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requested, err := requireStringArray(req, "tools")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	unloaded, notFound := resolveBatch(cctx.Catalog, requested)
	if len(unloaded) > 0 {
		cctx.DisableTools(unloaded)
	}
	return mcp.NewToolResultText(toolsetSummary("unloaded", unloaded, notFound)), nil
}

// resolveBatch resolves each requested name through the catalog, returning
// the resolved prefixedNames alongside the requested names that failed to
// resolve at all (ambiguous matches count as not-found for this summary,
// since acting on one of several candidates without the caller's
// confirmation would be unsafe).
func resolveBatch(cat *catalog.Catalog, requested []string) (resolved, notFound []string) {
	for _, name := range requested {
		rec, err := cat.Resolve(name)
		if err != nil {
			notFound = append(notFound, name)
			continue
		}
		resolved = append(resolved, rec.PrefixedName)
	}
	return resolved, notFound
}

func toolsetSummary(verb string, done, notFound []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d tool(s): %s\n", verb, len(done), strings.Join(done, ", "))
	if len(notFound) > 0 {
		fmt.Fprintf(&sb, "not found: %s\n", strings.Join(notFound, ", "))
	}
	return sb.String()
}

func requireStringArray(req mcp.CallToolRequest, key string) ([]string, error) {
	args := req.GetArguments()
	raw, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("missing required argument %q", key)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an array of strings", key)
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("argument %q must contain only strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}
