// Package logging provides the small, bracketed-component logging
// convention used throughout the proxy: plain stdlib log.Logger instances
// prefixed with "[Component] ", the way the teacher's cmd/omega/main.go and
// internal/mcp package log rather than reaching for a structured logger.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
)

// New returns a *log.Logger whose every line is prefixed with
// "[component] ". component is typically a package name: "Funnel",
// "Catalog", "Downstream", "CoreTool".
func New(component string) *log.Logger {
	return log.New(os.Stderr, fmt.Sprintf("[%s] ", component), log.LstdFlags)
}

// NewTo is like New but writes to an arbitrary writer, used for per-session
// log files instead of the process's stderr.
func NewTo(w io.Writer, component string) *log.Logger {
	return log.New(w, fmt.Sprintf("[%s] ", component), log.LstdFlags)
}
