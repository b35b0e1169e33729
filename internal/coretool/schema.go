package coretool

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcp-funnel/funnel/internal/catalog"
	"github.com/mcp-funnel/funnel/internal/config"
)

// GetToolSchema is the "get_tool_schema" core tool. It consults the
// catalog (applying filters, but not the dynamic-enable set) so a tool's
// schema can be inspected before it is enabled (spec.md §4.4).
type GetToolSchema struct{}

func (GetToolSchema) Name() string { return "get_tool_schema" }

func (GetToolSchema) Descriptor() mcp.Tool {
	return mcp.NewTool("get_tool_schema",
		mcp.WithDescription("Fetch the input schema of a tool by its prefixed name, even if it is not yet enabled."),
		mcp.WithString("tool", mcp.Required(), mcp.Description("The prefixed tool name, e.g. \"github__create_issue\".")),
	)
}

func (GetToolSchema) IsEnabled(cfg *config.ProxyConfig) bool {
	return defaultIsEnabled("get_tool_schema", cfg)
}

type toolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

func (GetToolSchema) Handle(_ context.Context, cctx *Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("tool")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, resolveErr := cctx.Catalog.Resolve(name)
	if resolveErr != nil {
		return mcp.NewToolResultError(resolveErrorText(name, resolveErr, false)), nil
	}

	schema := rec.InputSchema
	if len(schema) == 0 {
		schema = json.RawMessage("{}")
	}
	out, err := json.Marshal(toolDescriptor{
		Name:        rec.PrefixedName,
		Description: rec.Description,
		InputSchema: schema,
	})
	if err != nil {
		return mcp.NewToolResultError("get_tool_schema: marshal descriptor: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// resolveErrorText renders a resolve() failure as the human-readable text
// spec.md §4.4/§8 expects: the lookup failure plus, unless the failure was
// ambiguity, a hint toward get_tool_schema + bridge_tool_request.
// includeHint controls whether the caller wants that hint appended at all
// (get_tool_schema's own failure message has no further tool to hint at).
func resolveErrorText(name string, err error, includeHint bool) string {
	switch e := err.(type) {
	case *catalog.AmbiguousError:
		return e.Error()
	case *catalog.NotFoundError:
		msg := e.Error()
		if includeHint {
			msg += "; try get_tool_schema to inspect candidates, then bridge_tool_request to invoke one"
		}
		return msg
	default:
		return err.Error()
	}
}
