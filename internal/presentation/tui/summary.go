package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/cascade/pkg/domain"
	"github.com/muesli/termenv"
)

// Summary writes one block per run: status, completed outputs and failed branches.
func Summary(w io.Writer, reports []*domain.RunReport) {
	p := termenv.ColorProfile()
	green := p.Color("#22c55e")
	yellow := p.Color("#eab308")
	red := p.Color("#ef4444")
	faint := p.Color("#9ca3af")

	for _, r := range reports {
		if r == nil {
			continue
		}
		status := r.Status()
		color := green
		switch status {
		case domain.RunPartial:
			color = yellow
		case domain.RunFailed:
			color = red
		}

		fmt.Fprintf(w, "%s %s %s\n",
			termenv.String(fmt.Sprintf("[%s]", status)).Foreground(color).Bold(),
			r.Artifact,
			termenv.String(r.Duration().Round(time.Millisecond).String()).Foreground(faint),
		)
		for _, res := range r.Completed {
			fmt.Fprintf(w, "  %s %s -> %s\n", termenv.String("✓").Foreground(green), res.Step, res.OutputPath)
		}
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  %s %s (%s): %s\n", termenv.String("✗").Foreground(red), f.Step, f.Stage, f.Message)
			if len(f.Abandoned) > 0 {
				fmt.Fprintf(w, "    %s\n", termenv.String("abandoned: "+strings.Join(f.Abandoned, ", ")).Foreground(faint))
			}
		}
	}
}
