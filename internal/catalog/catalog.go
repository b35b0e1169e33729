// Package catalog aggregates the tool lists of every ready downstream
// session into one prefixed, filtered, resolvable view — the component
// spec.md §4.3 calls "Catalog". It is the sole owner of both the
// downstream tool map and the mutable subset of the proxy configuration,
// and therefore the sole lock holder for both (spec.md §5).
package catalog

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcp-funnel/funnel/internal/config"
	"github.com/mcp-funnel/funnel/internal/downstream"
	"github.com/mcp-funnel/funnel/internal/logging"
	"github.com/mcp-funnel/funnel/internal/match"
)

// maxCandidates bounds how many names an AmbiguousError reports (SPEC_FULL
// §12: the source left this unbounded; this proxy caps it at 10).
const maxCandidates = 10

// Session is the subset of *downstream.Session the catalog needs: enough
// to dispatch a call and to identify which records belong to it. A real
// *downstream.Session satisfies this structurally.
type Session interface {
	Name() string
	Call(ctx context.Context, originalName string, args map[string]any) (*mcp.CallToolResult, error)
}

// ToolRecord is one entry in the catalog (spec.md §3).
type ToolRecord struct {
	PrefixedName string
	OriginalName string
	Server       string
	Session      Session
	Description  string
	InputSchema  []byte
}

// Catalog aggregates downstream tool records behind a single RWMutex that
// also guards the mutable subset of the owned ProxyConfig.
type Catalog struct {
	mu sync.RWMutex

	cfg *config.ProxyConfig

	records   map[string]*ToolRecord
	order     []string            // insertion order, spec.md §4.3 "Result ordering"
	bySession map[string][]string // server name -> its prefixedNames, for removal
	enabled   map[string]bool     // dynamic-enable set

	log *log.Logger
}

// New constructs an empty Catalog bound to cfg. The Catalog reads cfg's
// mutable subset (ExposeTools, HideTools, EnableDynamicDiscovery) under its
// own lock; it has no method that writes those fields.
func New(cfg *config.ProxyConfig) *Catalog {
	return &Catalog{
		cfg:       cfg,
		records:   make(map[string]*ToolRecord),
		bySession: make(map[string][]string),
		enabled:   make(map[string]bool),
		log:       logging.New("Catalog"),
	}
}

// AddSession records tools (already fetched from sess by the caller) under
// sess's server-name prefix. A tool whose prefixedName collides with an
// existing record is skipped with a logged warning (spec.md §4.3).
func (c *Catalog) AddSession(sess Session, tools []downstream.ToolInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := sess.Name()
	for _, t := range tools {
		prefixed := name + separator + t.Name
		if _, exists := c.records[prefixed]; exists {
			c.log.Printf("warning: duplicate tool name %q from server %q ignored", prefixed, name)
			continue
		}
		c.records[prefixed] = &ToolRecord{
			PrefixedName: prefixed,
			OriginalName: t.Name,
			Server:       name,
			Session:      sess,
			Description:  t.Description,
			InputSchema:  []byte(t.InputSchema),
		}
		c.order = append(c.order, prefixed)
		c.bySession[name] = append(c.bySession[name], prefixed)
	}
}

// RemoveSession evicts every ToolRecord owned by the named server and
// prunes the enable set (spec.md §4.3, invariant "Enable-set membership").
func (c *Catalog) RemoveSession(serverName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := c.bySession[serverName]
	delete(c.bySession, serverName)
	if len(names) == 0 {
		return
	}

	removed := make(map[string]bool, len(names))
	for _, n := range names {
		delete(c.records, n)
		delete(c.enabled, n)
		removed[n] = true
	}

	kept := c.order[:0]
	for _, n := range c.order {
		if !removed[n] {
			kept = append(kept, n)
		}
	}
	c.order = kept
}

// List returns the currently visible downstream ToolRecords, in insertion
// order, for listTools (spec.md §4.3, §4.5). Core tools are appended by the
// caller (the proxy server), which tracks its own registration order.
func (c *Catalog) List() []*ToolRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*ToolRecord, 0, len(c.order))
	for _, name := range c.order {
		if !c.passesFiltersLocked(name) {
			continue
		}
		if c.cfg.EnableDynamicDiscovery && !c.enabled[name] {
			continue
		}
		out = append(out, c.records[name])
	}
	return out
}

// DescEntry is a filter-passing catalog entry's searchable metadata, used
// by discover_tools_by_words. Unlike List, it ignores the dynamic-enable
// set — the whole point of discovery is to surface tools not yet enabled.
type DescEntry struct {
	PrefixedName string
	Server       string
	Description  string
}

// SearchableEntries returns every filter-passing record's description-cache
// entry, in insertion order.
func (c *Catalog) SearchableEntries() []DescEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]DescEntry, 0, len(c.order))
	for _, name := range c.order {
		if !c.passesFiltersLocked(name) {
			continue
		}
		rec := c.records[name]
		out = append(out, DescEntry{PrefixedName: rec.PrefixedName, Server: rec.Server, Description: rec.Description})
	}
	return out
}

// Resolve implements spec.md §4.3's resolution algorithm: exact prefixed
// match first (subject to filters), then, if hackyDiscovery is enabled, a
// substring-then-fuzzy search over filter-passing names.
func (c *Catalog) Resolve(name string) (*ToolRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if strings.Contains(name, separator) {
		if rec, ok := c.records[name]; ok && c.passesFiltersLocked(name) {
			return rec, nil
		}
	}

	if !c.cfg.HackyDiscovery {
		return nil, &NotFoundError{Name: name}
	}
	return c.hackyResolveLocked(name)
}

// Enable adds names already known to the catalog to the dynamic-enable
// set; unknown names are silently ignored (callers resolve names before
// enabling them and report unresolved names themselves).
func (c *Catalog) Enable(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range names {
		if _, ok := c.records[n]; ok {
			c.enabled[n] = true
		}
	}
}

// Disable removes names from the dynamic-enable set.
func (c *Catalog) Disable(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range names {
		delete(c.enabled, n)
	}
}

// Get returns the record for an exact prefixedName without applying
// filters or the enable set.
func (c *Catalog) Get(prefixedName string) (*ToolRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[prefixedName]
	return rec, ok
}

func (c *Catalog) passesFiltersLocked(name string) bool {
	included := c.cfg.ExposeTools == nil || match.AnyMatches(name, c.cfg.ExposeTools)
	hidden := match.AnyMatches(name, c.cfg.HideTools)
	return included && !hidden
}

func (c *Catalog) hackyResolveLocked(query string) (*ToolRecord, error) {
	lowerQuery := strings.ToLower(query)

	var substr []string
	for _, name := range c.order {
		if !c.passesFiltersLocked(name) {
			continue
		}
		if strings.Contains(strings.ToLower(name), lowerQuery) {
			substr = append(substr, name)
		}
	}
	if len(substr) == 1 {
		return c.records[substr[0]], nil
	}
	if len(substr) > 1 {
		return nil, ambiguous(query, substr)
	}

	var fuzzy []string
	threshold := len(query) * 30 / 100
	if threshold < 2 {
		threshold = 2
	}
	for _, name := range c.order {
		if !c.passesFiltersLocked(name) {
			continue
		}
		if levenshtein(lowerQuery, strings.ToLower(name)) <= threshold {
			fuzzy = append(fuzzy, name)
		}
	}
	if len(fuzzy) == 1 {
		return c.records[fuzzy[0]], nil
	}
	if len(fuzzy) > 1 {
		return nil, ambiguous(query, fuzzy)
	}
	return nil, &NotFoundError{Name: query}
}

func ambiguous(query string, candidates []string) *AmbiguousError {
	sort.Strings(candidates)
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return &AmbiguousError{Name: query, Candidates: candidates}
}

// separator is the reserved tool-name prefix delimiter (spec.md §3, §4.3).
const separator = "__"

// levenshtein computes the edit distance between a and b.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
