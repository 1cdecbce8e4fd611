package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/cascade/internal/presentation/tui"
	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/ports"
)

// ErrRunFailed is returned when, for some artifact, every entry step failed.
var ErrRunFailed = errors.New("every entry step failed")

// RunOptions configure the run command.
type RunOptions struct {
	Options
	// Inputs overrides the repository scan.
	Inputs []string
	// Parallel is the number of artifacts processed at once.
	Parallel int
	// Show prints every produced output after the summary.
	Show bool
}

// Run executes the flow over the project's input artifacts and writes a
// summary to w. Partially failed runs are not an error.
func Run(ctx context.Context, opts RunOptions, w io.Writer) error {
	logger, err := opts.Logger()
	if err != nil {
		return err
	}
	stack, err := NewStack(opts.Options, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	inputs, err := stack.Project.Inputs(opts.Inputs)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		fmt.Fprintf(w, "No input artifacts in %s\n", stack.Project.Repository)
		return nil
	}
	logger.Info("Starting run", "artifacts", len(inputs), "entries", stack.Engine.Graph().Entries())

	reports, runErr := stack.Engine.RunAll(ctx, inputs, opts.Parallel)
	tui.Summary(w, reports)

	if opts.Show {
		showOutputs(ctx, w, stack.Engine.Artifacts(), reports)
	}
	if runErr != nil {
		return runErr
	}

	var failed []string
	for _, r := range reports {
		if r != nil && r.Status() == domain.RunFailed {
			failed = append(failed, r.Artifact)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", ErrRunFailed, strings.Join(failed, ", "))
	}
	return nil
}

// showOutputs prints each completed output, rendered with glamour when w is a terminal.
func showOutputs(ctx context.Context, w io.Writer, store ports.ArtifactStore, reports []*domain.RunReport) {
	var render func(string) (string, error)
	if f, ok := w.(*os.File); ok && tui.IsTerminal(f) {
		render, _ = tui.NewRenderer()
	}

	for _, r := range reports {
		if r == nil {
			continue
		}
		for _, res := range r.Completed {
			data, err := store.Get(ctx, res.OutputPath)
			if err != nil {
				fmt.Fprintf(w, "\n# %s: %v\n", res.Step, err)
				continue
			}
			fmt.Fprintf(w, "\n# %s (%s)\n\n", res.Step, res.OutputPath)
			out := string(data)
			if render != nil {
				if md, err := render(tui.AsMarkdown(res.OutputPath, out)); err == nil {
					out = md
				}
			}
			fmt.Fprintln(w, strings.TrimRight(out, "\n"))
		}
	}
}
