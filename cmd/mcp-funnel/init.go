package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// starterConfig is written by "mcp-funnel init". Grounded on the teacher's
// internal/tool/builtin/mcp_server.go, which already knows the on-disk
// shape of an mcpServers map (it builds one for the agent's own tool);
// here that shape is scaffolded once for a human instead of appended to at
// agent runtime, since this proxy has no agent to drive the equivalent
// tool call (SPEC_FULL.md §11.3).
const starterConfig = `{
  "mcpServers": {
    "_example": {
      "command": "npx",
      "args": ["-y", "@modelcontextprotocol/server-example"],
      "env": {}
    }
  },
  "exposeTools": null,
  "hideTools": [],
  "enableDynamicDiscovery": false,
  "hackyDiscovery": false
}
`

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [config-path]",
		Short: "Write a starter .mcp-funnel.json in the current directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ".mcp-funnel.json"
			if len(args) > 0 {
				path = args[0]
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}

			if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
