package main

import (
	"os"

	"github.com/aretw0/cascade/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the flow and the step configuration",
	Long:  `Loads the configuration, checks the flow for cycles and unknown steps and resolves every step.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.Validate(options(cmd), os.Stdout); err != nil {
			fail("Validation failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
