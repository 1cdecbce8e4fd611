package main

import (
	"github.com/aretw0/cascade/internal/cli"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the cascade release and build platform",
	Run: func(cmd *cobra.Command, args []string) {
		short, _ := cmd.Flags().GetBool("short")
		cli.Version(cmd.OutOrStdout(), short)
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "Print only the release number")
	rootCmd.AddCommand(versionCmd)
}
