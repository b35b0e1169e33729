package coretool

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcp-funnel/funnel/internal/catalog"
	"github.com/mcp-funnel/funnel/internal/config"
	"github.com/mcp-funnel/funnel/internal/downstream"
)

type fakeSession struct {
	name string
}

func (f *fakeSession) Name() string { return f.name }

func (f *fakeSession) Call(_ context.Context, originalName string, args map[string]any) (*mcp.CallToolResult, error) {
	if originalName == "explode" {
		return nil, errExplode
	}
	return mcp.NewToolResultText("ok:" + originalName), nil
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errExplode = fakeErr("downstream rejected the call")

func newTestContext(t *testing.T, cfg *config.ProxyConfig) (*catalog.Catalog, *Context) {
	t.Helper()
	cat := catalog.New(cfg)
	cat.AddSession(&fakeSession{name: "github"}, []downstream.ToolInfo{
		{Name: "create_issue", Description: "Create a GitHub issue"},
	})
	cat.AddSession(&fakeSession{name: "memory"}, []downstream.ToolInfo{
		{Name: "read_note", Description: "Read a stored note"},
		{Name: "explode", Description: "Always fails"},
	})
	return cat, NewContext(cat, cfg)
}

func callToolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func TestDiscoverToolsByWords(t *testing.T) {
	_, cctx := newTestContext(t, &config.ProxyConfig{})
	tool := DiscoverToolsByWords{}

	res, err := tool.Handle(context.Background(), cctx, callToolRequest(map[string]any{"keywords": "issue"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "github__create_issue") {
		t.Errorf("expected match for github__create_issue, got %q", text)
	}
	if strings.Contains(text, "memory__read_note") {
		t.Errorf("did not expect memory__read_note to match 'issue', got %q", text)
	}
}

func TestGetToolSchema_NotFound(t *testing.T) {
	_, cctx := newTestContext(t, &config.ProxyConfig{})
	tool := GetToolSchema{}

	res, err := tool.Handle(context.Background(), cctx, callToolRequest(map[string]any{"tool": "memory__missing"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError {
		t.Error("expected IsError for unknown tool")
	}
}

func TestGetToolSchema_IgnoresEnableSet(t *testing.T) {
	cfg := &config.ProxyConfig{EnableDynamicDiscovery: true}
	_, cctx := newTestContext(t, cfg)
	tool := GetToolSchema{}

	res, err := tool.Handle(context.Background(), cctx, callToolRequest(map[string]any{"tool": "memory__read_note"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.IsError {
		t.Errorf("expected schema retrievable even when not enabled, got error: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), "read_note") {
		t.Errorf("expected schema text to mention read_note, got %q", resultText(t, res))
	}
}

func TestBridgeToolRequest_Success(t *testing.T) {
	_, cctx := newTestContext(t, &config.ProxyConfig{})
	tool := BridgeToolRequest{}

	res, err := tool.Handle(context.Background(), cctx, callToolRequest(map[string]any{"tool": "memory__read_note"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if resultText(t, res) != "ok:read_note" {
		t.Errorf("unexpected result text: %q", resultText(t, res))
	}
}

func TestBridgeToolRequest_NotFoundHasHint(t *testing.T) {
	_, cctx := newTestContext(t, &config.ProxyConfig{})
	tool := BridgeToolRequest{}

	res, err := tool.Handle(context.Background(), cctx, callToolRequest(map[string]any{"tool": "nosuch"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result")
	}
	text := resultText(t, res)
	if !strings.Contains(text, "not found") || !strings.Contains(text, "get_tool_schema") {
		t.Errorf("expected not-found message with hint, got %q", text)
	}
}

func TestBridgeToolRequest_AmbiguousSuppressesHint(t *testing.T) {
	cfg := &config.ProxyConfig{HackyDiscovery: true}
	_, cctx := newTestContext(t, cfg)
	cctx.Catalog.AddSession(&fakeSession{name: "other"}, []downstream.ToolInfo{
		{Name: "create_issue", Description: "Also creates an issue"},
	})
	tool := BridgeToolRequest{}

	res, err := tool.Handle(context.Background(), cctx, callToolRequest(map[string]any{"tool": "create_issue"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(t, res)
	if strings.Contains(text, "get_tool_schema") {
		t.Errorf("expected hint suppressed for ambiguous match, got %q", text)
	}
}

func TestBridgeToolRequest_DownstreamFailure(t *testing.T) {
	_, cctx := newTestContext(t, &config.ProxyConfig{})
	tool := BridgeToolRequest{}

	res, err := tool.Handle(context.Background(), cctx, callToolRequest(map[string]any{"tool": "memory__explode"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result for downstream failure")
	}
}

func TestLoadUnloadToolset(t *testing.T) {
	cfg := &config.ProxyConfig{EnableDynamicDiscovery: true}
	cat, cctx := newTestContext(t, cfg)

	load := LoadToolset{}
	if !load.IsEnabled(cfg) {
		t.Fatal("expected load_toolset enabled when enableDynamicDiscovery is set")
	}

	res, err := load.Handle(context.Background(), cctx, callToolRequest(map[string]any{
		"tools": []any{"memory__read_note", "nosuch"},
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !cctx.TakeDirty() {
		t.Error("expected load_toolset to mark the context dirty")
	}
	text := resultText(t, res)
	if !strings.Contains(text, "memory__read_note") || !strings.Contains(text, "nosuch") {
		t.Errorf("unexpected summary: %q", text)
	}

	visible := cat.List()
	found := false
	for _, r := range visible {
		if r.PrefixedName == "memory__read_note" {
			found = true
		}
	}
	if !found {
		t.Error("expected memory__read_note visible after load_toolset")
	}

	unload := UnloadToolset{}
	_, err = unload.Handle(context.Background(), cctx, callToolRequest(map[string]any{
		"tools": []any{"memory__read_note"},
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !cctx.TakeDirty() {
		t.Error("expected unload_toolset to mark the context dirty")
	}
	if len(cat.List()) != 0 {
		t.Errorf("expected no visible tools after unload, got %v", cat.List())
	}
}

func TestLoadToolset_DisabledWithoutDynamicDiscovery(t *testing.T) {
	cfg := &config.ProxyConfig{}
	load := LoadToolset{}
	if load.IsEnabled(cfg) {
		t.Error("expected load_toolset disabled when enableDynamicDiscovery is false")
	}
}
