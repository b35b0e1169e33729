package catalog

import "fmt"

// The error kinds from spec.md §7 that belong to resolution. The
// invocation-side kinds (ToolInvocationError, SessionClosedError) are
// produced by internal/downstream instead, since this package imports
// downstream and a reverse import would cycle.

// NotFoundError means resolution of a tool name found no candidate.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog: tool %q not found", e.Name)
}

// AmbiguousError means hacky discovery matched more than one candidate.
// Candidates is sorted and capped at maxCandidates (10).
type AmbiguousError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("catalog: tool %q is ambiguous, candidates: %v", e.Name, e.Candidates)
}
