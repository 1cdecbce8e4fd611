package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/cascade/internal/presentation/graph"
)

// Graph writes the Mermaid rendering of the flow.
// With a run ID the stored run's outcomes are overlaid.
func Graph(ctx context.Context, opts Options, runID string, w io.Writer) error {
	logger, err := opts.Logger()
	if err != nil {
		return err
	}
	stack, err := NewStack(opts, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	var overlay *graph.Overlay
	if runID != "" {
		report, err := stack.Runs.Load(ctx, runID)
		if err != nil {
			return err
		}
		overlay = graph.OverlayFromReport(report)
	}

	fmt.Fprint(w, graph.GenerateMermaid(stack.Engine.Graph(), overlay))
	return nil
}
