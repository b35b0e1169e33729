package downstream

import (
	"context"
	"testing"

	"github.com/mcp-funnel/funnel/internal/config"
)

// TestNewSession_InitialState mirrors the teacher's
// TestNewClient_Close_WhenNotConnected: a freshly constructed Session
// starts in StateStarting and must not be usable until Connect succeeds.
func TestNewSession_InitialState(t *testing.T) {
	spec := config.ServerSpec{Name: "memory", Command: "memory-server"}
	sess := NewSession(spec, "run-1", t.TempDir(), false)

	if got := sess.State(); got != StateStarting {
		t.Errorf("State() = %v, want %v", got, StateStarting)
	}
	if sess.Name() != "memory" {
		t.Errorf("Name() = %q, want %q", sess.Name(), "memory")
	}
}

// TestSession_Call_BeforeConnect verifies that Call on an unconnected
// session surfaces a clear error instead of panicking, the way the
// teacher's TestServerConfig_ZeroValue checks Connect fails cleanly on a
// zero-value config.
func TestSession_Call_BeforeConnect(t *testing.T) {
	spec := config.ServerSpec{Name: "memory", Command: "memory-server"}
	sess := NewSession(spec, "run-1", t.TempDir(), false)

	_, err := sess.Call(context.Background(), "read_note", nil)
	if err == nil {
		t.Fatal("expected error calling a tool before Connect")
	}
}

// TestSession_Tools_BeforeConnect mirrors the same "not connected" guard
// for the Tools accessor.
func TestSession_Tools_BeforeConnect(t *testing.T) {
	spec := config.ServerSpec{Name: "memory", Command: "memory-server"}
	sess := NewSession(spec, "run-1", t.TempDir(), false)

	if _, err := sess.Tools(context.Background()); err == nil {
		t.Fatal("expected error listing tools before Connect")
	}
}

// TestSession_Close_WhenNotConnected mirrors the teacher's
// TestNewClient_Close_WhenNotConnected: Close on a never-connected Session
// must not panic or error, and must be idempotent.
func TestSession_Close_WhenNotConnected(t *testing.T) {
	spec := config.ServerSpec{Name: "memory", Command: "memory-server"}
	sess := NewSession(spec, "run-1", t.TempDir(), false)

	if err := sess.Close(); err != nil {
		t.Errorf("unexpected Close error: %v", err)
	}
	if got := sess.State(); got != StateClosed {
		t.Errorf("State() after Close = %v, want %v", got, StateClosed)
	}
	// Close must be idempotent (spec.md §4.2).
	if err := sess.Close(); err != nil {
		t.Errorf("second Close returned error: %v", err)
	}
}

// TestSession_Connect_SpawnFailure verifies that a command which cannot be
// spawned transitions the session to StateFailed and retains the error,
// without panicking (spec.md §4.2: Connect "fails with StartupError on
// spawn failure").
func TestSession_Connect_SpawnFailure(t *testing.T) {
	spec := config.ServerSpec{Name: "bogus", Command: "/nonexistent/binary/does-not-exist"}
	sess := NewSession(spec, "run-1", t.TempDir(), false)

	if err := sess.Connect(context.Background()); err == nil {
		t.Fatal("expected Connect to fail for a nonexistent command")
	}
	if got := sess.State(); got != StateFailed {
		t.Errorf("State() = %v, want %v", got, StateFailed)
	}
	if sess.Err() == nil {
		t.Error("expected Err() to report the spawn failure")
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateStarting: "starting",
		StateReady:    "ready",
		StateFailed:   "failed",
		StateClosed:   "closed",
		State(99):     "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
