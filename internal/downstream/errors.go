package downstream

import "fmt"

// The error kinds from spec.md §7 that this package is responsible for
// producing. internal/catalog declares the resolution-side kinds
// (NotFoundError, AmbiguousError); it cannot import this package's kinds
// directly without creating an import cycle (catalog already imports
// downstream), so callers that need to distinguish a catalog error from a
// downstream one use errors.As against both packages.

// ToolInvocationError wraps a downstream server's rejection of a call-tool
// request, carrying its message verbatim.
type ToolInvocationError struct {
	Name    string
	Server  string
	Message string
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("downstream: tool %q on %q invocation failed: %s", e.Name, e.Server, e.Message)
}

// SessionClosedError reports that the owning downstream session is no
// longer available to serve a call.
type SessionClosedError struct {
	Server string
}

func (e *SessionClosedError) Error() string {
	return fmt.Sprintf("downstream: session %q is closed", e.Server)
}
