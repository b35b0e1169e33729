// Package config loads and represents the proxy's configuration: the set of
// downstream servers to spawn and the filters/flags that shape the
// aggregated catalog.
package config

import "fmt"

// ServerSpec describes one downstream MCP server to spawn and connect to.
// Populated by the config loader; immutable once loaded (see ProxyConfig).
type ServerSpec struct {
	// Name is the server identifier used as the prefix of every tool it
	// exposes ("<name>__<tool>"). Populated from the mcpServers map key,
	// the way the teacher's LoadConfig populates ServerConfig.Name — not
	// from a JSON field of its own.
	Name string `json:"-"`

	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Validate checks the invariants spec.md §3 places on a ServerSpec in
// isolation (uniqueness across a ProxyConfig is checked by ProxyConfig.Validate).
func (s ServerSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("config: server name must not be empty")
	}
	if containsSeparator(s.Name) {
		return fmt.Errorf("config: server name %q must not contain %q", s.Name, separator)
	}
	if s.Command == "" {
		return fmt.Errorf("config: server %q: command must not be empty", s.Name)
	}
	return nil
}

// separator is the reserved prefix delimiter (spec.md §3, §4.3).
const separator = "__"

func containsSeparator(s string) bool {
	for i := 0; i+len(separator) <= len(s); i++ {
		if s[i:i+len(separator)] == separator {
			return true
		}
	}
	return false
}

// ProxyConfig is the validated, loaded proxy configuration (spec.md §3).
//
// Servers is treated as immutable after load. ExposeTools, HideTools and
// EnableDynamicDiscovery form the "mutable subset" that the control plane
// (§6) may rewrite at runtime; this type itself does not guard them with a
// lock. The Catalog reads the mutable subset under its own catalog lock;
// no code in this module writes these fields after Load, and the Catalog
// exposes no method that does. The core-tool IsEnabled checks read
// EnableDynamicDiscovery directly, without that lock.
type ProxyConfig struct {
	Servers []ServerSpec `json:"-"`

	// ExposeTools is the include-pattern list. Nil means "no include
	// filter" (everything passes the include stage); a non-nil empty
	// slice means "nothing is included" — the two are distinct, hence the
	// pointer-shaped exposeTools field of the loader's fileConfig.
	ExposeTools []string `json:"-"`

	// HideTools is the exclude-pattern list; absent/empty both mean "hide
	// nothing" (there is no meaningful distinction for an exclude list the
	// way there is for an include list).
	HideTools []string `json:"-"`

	EnableDynamicDiscovery bool `json:"-"`
	HackyDiscovery         bool `json:"-"`

	// ExposeCoreTools mirrors ExposeTools' absent/empty distinction for the
	// core-tool suite: nil → all core tools enabled; non-nil empty → none.
	ExposeCoreTools *[]string `json:"-"`
}

// Validate checks the ProxyConfig-level invariants from spec.md §3: server
// name uniqueness and well-formed specs.
func (c *ProxyConfig) Validate() error {
	seen := make(map[string]bool, len(c.Servers))
	for _, s := range c.Servers {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.Name] {
			return fmt.Errorf("config: duplicate server name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
