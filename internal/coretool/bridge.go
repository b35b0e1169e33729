package coretool

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcp-funnel/funnel/internal/catalog"
	"github.com/mcp-funnel/funnel/internal/config"
)

// BridgeToolRequest is the "bridge_tool_request" core tool: it resolves a
// name through the catalog and forwards the call to the owning downstream
// session (spec.md §4.4).
type BridgeToolRequest struct{}

func (BridgeToolRequest) Name() string { return "bridge_tool_request" }

func (BridgeToolRequest) Descriptor() mcp.Tool {
	return mcp.NewTool("bridge_tool_request",
		mcp.WithDescription("Invoke any catalogued tool by its prefixed name, forwarding arguments to the owning downstream server."),
		mcp.WithString("tool", mcp.Required(), mcp.Description("The prefixed tool name to invoke.")),
		mcp.WithObject("arguments", mcp.Description("Arguments to pass to the tool, matching its input schema.")),
	)
}

func (BridgeToolRequest) IsEnabled(cfg *config.ProxyConfig) bool {
	return defaultIsEnabled("bridge_tool_request", cfg)
}

func (BridgeToolRequest) Handle(ctx context.Context, cctx *Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("tool")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := req.GetArguments()

	rec, resolveErr := cctx.Catalog.Resolve(name)
	if resolveErr != nil {
		// The hint is suppressed for an ambiguous match: the candidate list
		// already tells the caller what to do next (spec.md §8 scenario 6).
		_, isAmbiguous := resolveErr.(*catalog.AmbiguousError)
		return mcp.NewToolResultError(resolveErrorText(name, resolveErr, !isAmbiguous)), nil
	}

	result, callErr := rec.Session.Call(ctx, rec.OriginalName, args)
	if callErr != nil {
		return mcp.NewToolResultError(callErr.Error()), nil
	}
	return result, nil
}
