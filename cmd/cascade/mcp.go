package main

import (
	"github.com/aretw0/cascade/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the flow as an MCP server over stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout exposing the
get_flow, validate_flow, run_pipeline, list_runs and get_run tools.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.ServeMCP(options(cmd)); err != nil {
			fail("MCP server error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
