package proxy

import (
	"context"
	"testing"
	"time"

	"github.com/mcp-funnel/funnel/internal/config"
)

// TestNew_DefaultShutdownTimeout mirrors the teacher's
// TestNewManager_CreatesEmptyState: a freshly constructed Proxy applies the
// documented default when given a non-positive timeout.
func TestNew_DefaultShutdownTimeout(t *testing.T) {
	cfg := &config.ProxyConfig{}
	p := New(cfg, "run-1", t.TempDir(), 0, false)
	if p.shutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("shutdownTimeout = %v, want %v", p.shutdownTimeout, DefaultShutdownTimeout)
	}
}

// TestStartup_NoServers verifies spec.md §4.5's "at least zero sessions may
// be ready" case: Startup with an empty server list must succeed and still
// register the core tools.
func TestStartup_NoServers(t *testing.T) {
	cfg := &config.ProxyConfig{}
	p := New(cfg, "run-1", t.TempDir(), time.Second, false)

	if err := p.Startup(context.Background()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if len(p.mcpServer.ListTools()) == 0 {
		t.Error("expected core tools to be registered with no downstream servers")
	}
}

// TestShutdown_Idempotent mirrors the teacher's TestCloseAll_Idempotent:
// Shutdown on a Proxy with no sessions must return promptly without error.
func TestShutdown_Idempotent(t *testing.T) {
	cfg := &config.ProxyConfig{}
	p := New(cfg, "run-1", t.TempDir(), 50*time.Millisecond, false)

	p.Shutdown()
	p.Shutdown()
}

// TestStartup_ExposeCoreToolsEmpty verifies the "empty list -> none"
// exposeCoreTools semantics (spec.md §3 invariant "Filter semantics"
// extended to core tools in §4.4): Startup must register zero core tools.
func TestStartup_ExposeCoreToolsEmpty(t *testing.T) {
	empty := []string{}
	cfg := &config.ProxyConfig{ExposeCoreTools: &empty}
	p := New(cfg, "run-1", t.TempDir(), time.Second, false)

	if err := p.Startup(context.Background()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if got := len(p.mcpServer.ListTools()); got != 0 {
		t.Errorf("registered tool count = %d, want 0 with exposeCoreTools=[]", got)
	}
}
