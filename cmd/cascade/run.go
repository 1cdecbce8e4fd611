package main

import (
	"context"
	"errors"
	"os"

	"github.com/aretw0/cascade/internal/cli"
	"github.com/aretw0/cascade/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [artifact...]",
	Short: "Run the flow over the input artifacts",
	Long: `Runs the flow once per input artifact. Without arguments every file of the
repository folder is processed. Outputs are written under the output folder.`,
	Run: func(cmd *cobra.Command, args []string) {
		parallel, _ := cmd.Flags().GetInt("parallel-artifacts")
		show, _ := cmd.Flags().GetBool("show")
		quiet, _ := cmd.Flags().GetBool("quiet")

		if !quiet && tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout)
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Stop()

		err := cli.Run(ctx, cli.RunOptions{
			Options:  options(cmd),
			Inputs:   args,
			Parallel: parallel,
			Show:     show,
		}, os.Stdout)

		if sig := ctx.Signal(); sig != nil {
			fail("Interrupted by %v", sig)
		}
		if errors.Is(err, cli.ErrRunFailed) {
			fail("Run failed: %v", err)
		}
		if err != nil {
			fail("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntP("parallel-artifacts", "j", 1, "Number of artifacts processed concurrently")
	runCmd.Flags().Bool("show", false, "Print every produced output after the summary")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
