package main

import (
	"os"

	"github.com/aretw0/cascade/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the flow as a Mermaid diagram",
	Long:  `Prints the flow as a Mermaid flowchart. With --run the outcome of a stored run is overlaid.`,
	Run: func(cmd *cobra.Command, args []string) {
		runID, _ := cmd.Flags().GetString("run")
		if err := cli.Graph(cmd.Context(), options(cmd), runID, os.Stdout); err != nil {
			fail("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("run", "", "Run ID whose outcome is overlaid")
}
