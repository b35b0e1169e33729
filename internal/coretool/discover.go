package coretool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcp-funnel/funnel/internal/config"
)

// DiscoverToolsByWords is the "discover_tools_by_words" core tool: a
// keyword directory over every filter-passing catalog entry, independent
// of the dynamic-enable set (spec.md §4.4).
type DiscoverToolsByWords struct{}

func (DiscoverToolsByWords) Name() string { return "discover_tools_by_words" }

func (DiscoverToolsByWords) Descriptor() mcp.Tool {
	return mcp.NewTool("discover_tools_by_words",
		mcp.WithDescription("Search the tool catalog by keyword. Returns prefixed tool names whose name or description matches, ranked by number of distinct keyword hits."),
		mcp.WithString("keywords", mcp.Required(), mcp.Description("Space- or comma-separated keywords to search for.")),
	)
}

func (DiscoverToolsByWords) IsEnabled(cfg *config.ProxyConfig) bool {
	return defaultIsEnabled("discover_tools_by_words", cfg)
}

func (t DiscoverToolsByWords) Handle(_ context.Context, cctx *Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keywordsArg, err := req.RequireString("keywords")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	keywords := splitKeywords(keywordsArg)
	if len(keywords) == 0 {
		return mcp.NewToolResultText("no keywords given"), nil
	}

	type scored struct {
		entry string
		hits  int
	}

	var results []scored
	for _, e := range cctx.Catalog.SearchableEntries() {
		haystack := strings.ToLower(e.PrefixedName + " " + e.Description)
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				hits++
			}
		}
		if hits > 0 {
			results = append(results, scored{entry: e.PrefixedName, hits: hits})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].hits != results[j].hits {
			return results[i].hits > results[j].hits
		}
		return results[i].entry < results[j].entry
	})

	if len(results) == 0 {
		return mcp.NewToolResultText("no tools matched: " + keywordsArg), nil
	}

	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "%s (%d keyword hit(s))\n", r.entry, r.hits)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func splitKeywords(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
