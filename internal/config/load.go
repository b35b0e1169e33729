package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// fundHomeEnv is the environment variable that overrides the user-level
// config directory (spec.md §6).
const fundHomeEnv = "MCP_FUNNEL_HOME"

// DefaultProjectConfigName is the project-level config file name probed by
// the CLI when no path is given (spec.md §6: "./.mcp-funnel.json").
const DefaultProjectConfigName = ".mcp-funnel.json"

// fileConfig mirrors the top-level structure of a funnel config file
// (JSON or YAML). Grounded on the teacher's mcpConfigFile/ServerConfig
// shape in internal/mcp/client.go: server names come from the mcpServers
// map key, never from a field inside the entry.
type fileConfig struct {
	MCPServers             map[string]serverEntry `json:"mcpServers" yaml:"mcpServers"`
	ExposeTools            *[]string              `json:"exposeTools,omitempty" yaml:"exposeTools,omitempty"`
	HideTools              *[]string              `json:"hideTools,omitempty" yaml:"hideTools,omitempty"`
	EnableDynamicDiscovery *bool                  `json:"enableDynamicDiscovery,omitempty" yaml:"enableDynamicDiscovery,omitempty"`
	HackyDiscovery         *bool                  `json:"hackyDiscovery,omitempty" yaml:"hackyDiscovery,omitempty"`
	ExposeCoreTools        *[]string              `json:"exposeCoreTools,omitempty" yaml:"exposeCoreTools,omitempty"`
}

type serverEntry struct {
	Command string            `json:"command" yaml:"command"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// Load reads, deep-merges and validates the proxy configuration.
//
// projectPath is the project-level file (defaults to DefaultProjectConfigName
// in the current directory when empty). If a user-level config also exists
// (in the directory named by MCP_FUNNEL_HOME, or the platform default config
// dir when that variable is unset), it is deep-merged underneath the
// project file: project wins per key, arrays are replaced wholesale rather
// than concatenated (spec.md §6, §9).
func Load(projectPath string) (*ProxyConfig, error) {
	if projectPath == "" {
		projectPath = DefaultProjectConfigName
	}

	merged := map[string]any{}

	if userPath := userConfigPath(projectPath); userPath != "" {
		if raw, ok, err := readRaw(userPath); err != nil {
			return nil, fmt.Errorf("config: read user config %q: %w", userPath, err)
		} else if ok {
			merged = deepMerge(merged, raw)
		}
	}

	raw, ok, err := readRaw(projectPath)
	if err != nil {
		return nil, fmt.Errorf("config: read project config %q: %w", projectPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("config: no config file found at %q", projectPath)
	}
	merged = deepMerge(merged, raw)

	var fc fileConfig
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("config: re-marshal merged config: %w", err)
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config: decode merged config: %w", err)
	}

	cfg := fromFileConfig(fc)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromFileConfig(fc fileConfig) *ProxyConfig {
	servers := make([]ServerSpec, 0, len(fc.MCPServers))
	names := make([]string, 0, len(fc.MCPServers))
	for name := range fc.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e := fc.MCPServers[name]
		servers = append(servers, ServerSpec{
			Name:    name,
			Command: e.Command,
			Args:    e.Args,
			Env:     e.Env,
		})
	}

	cfg := &ProxyConfig{
		Servers:         servers,
		ExposeCoreTools: fc.ExposeCoreTools,
	}
	if fc.ExposeTools != nil {
		cfg.ExposeTools = *fc.ExposeTools
	}
	if fc.HideTools != nil {
		cfg.HideTools = *fc.HideTools
	}
	if fc.EnableDynamicDiscovery != nil {
		cfg.EnableDynamicDiscovery = *fc.EnableDynamicDiscovery
	}
	if fc.HackyDiscovery != nil {
		cfg.HackyDiscovery = *fc.HackyDiscovery
	}
	return cfg
}

// readRaw reads path (JSON or YAML, by extension) into a generic
// map[string]any suitable for deepMerge. Returns ok=false if the file does
// not exist.
func readRaw(path string) (map[string]any, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, false, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, false, fmt.Errorf("parse json: %w", err)
		}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, true, nil
}

// deepMerge unions dst and src object keys, recursing into nested objects
// and replacing (never concatenating) arrays and scalars. src values win on
// conflict. This is the exact algorithm spec.md §9 calls for.
func deepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if dstChild, ok := out[k].(map[string]any); ok {
			if srcChild, ok := v.(map[string]any); ok {
				out[k] = deepMerge(dstChild, srcChild)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// userConfigPath resolves the user-level config file path. MCP_FUNNEL_HOME
// overrides the directory; otherwise the project file's own basename is
// looked up under the OS user-config directory. The directory is not
// checked for existence here. Returns "" only when MCP_FUNNEL_HOME is unset
// and the OS user-config directory cannot be determined.
func userConfigPath(projectPath string) string {
	base := filepath.Base(projectPath)
	if home := os.Getenv(fundHomeEnv); home != "" {
		return filepath.Join(home, base)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mcp-funnel", base)
}
