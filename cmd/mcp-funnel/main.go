// Command mcp-funnel is the CLI entry point for the proxy (spec.md §6): a
// single binary that loads a config file and serves the aggregated tool
// catalog to an MCP host over stdio.
//
// Grounded on the teacher's single linear cmd/omega/main.go for the startup
// banner and logging convention, restructured as a github.com/spf13/cobra
// root command the way compozy-compozy/cmd/mcp-proxy/main.go fronts its own
// proxy command (SPEC_FULL.md §10.4).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mcp-funnel/funnel/internal/config"
	"github.com/mcp-funnel/funnel/internal/proxy"
)

// version is the CLI's own release version, reported by the "version"
// subcommand. Not to be confused with the MCP server implementation
// version the proxy reports to the host (internal/proxy.New).
const version = "0.1.0"

var (
	debug           bool
	shutdownTimeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mcp-funnel:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mcp-funnel [config-path]",
		Short: "Aggregate a set of downstream MCP servers behind one proxy endpoint",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProxy,
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log every downstream tool call's arguments and timing")
	root.PersistentFlags().DurationVar(&shutdownTimeout, "shutdown-timeout", proxy.DefaultShutdownTimeout, "bound on how long shutdown waits for downstream sessions to close")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mcp-funnel version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "mcp-funnel %s\n", version)
			return nil
		},
	}
}

// runProxy is the root command's RunE: load config.LoadEnv + config.Load,
// build and run the Proxy, and wire SIGINT/SIGTERM into a clean shutdown
// (spec.md §4.5 "on host disconnect or signal").
func runProxy(cmd *cobra.Command, args []string) error {
	config.LoadEnv()

	configPath := ""
	if len(args) > 0 {
		configPath = args[0]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runID := uuid.NewString()
	logDir := filepath.Join(".", "logs", "mcp-funnel")

	fmt.Fprintf(os.Stderr, "mcp-funnel: run %s, %d downstream server(s) configured\n", runID, len(cfg.Servers))
	if debug {
		fmt.Fprintf(os.Stderr, "mcp-funnel: debug logging enabled, logs under %s\n", logDir)
	}

	p := proxy.New(cfg, runID, logDir, shutdownTimeout, debug)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return p.Run(ctx)
}
