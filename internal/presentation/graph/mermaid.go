package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/flow"
)

// Overlay marks step outcomes of a run on the graph.
type Overlay struct {
	Completed []string
	Failed    []string
	Abandoned []string
}

// OverlayFromReport collects the step outcomes recorded in a report.
func OverlayFromReport(r *domain.RunReport) *Overlay {
	o := &Overlay{}
	for _, res := range r.Completed {
		o.Completed = append(o.Completed, res.Step)
	}
	for _, f := range r.Failures {
		o.Failed = append(o.Failed, f.Step)
		o.Abandoned = append(o.Abandoned, f.Abandoned...)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart for the flow graph.
// Shapes:
// - Entry: ((Circle))
// - Fan-in (several upstream steps): {{Hexagon}}
// - Terminal: ([Stadium])
// - Default: [Rectangle]
// Overlay classes are appended when overlay is non-nil.
func GenerateMermaid(g *flow.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	entries := g.Entries()
	for _, step := range g.Steps() {
		safeID := sanitizeMermaidID(step)

		opener, closer := "[", "]"
		switch {
		case slices.Contains(entries, step):
			opener, closer = "((", "))"
		case len(g.UpstreamOf(step)) > 1:
			opener, closer = "{{", "}}"
		case len(g.DownstreamOf(step)) == 0:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, step, closer)

		for _, next := range g.DownstreamOf(step) {
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(next))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Run Overlay\n")
		// Black text keeps labels readable on light fills in both themes.
		sb.WriteString("    classDef completed fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef abandoned fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:5 5,color:#000;\n")

		writeClass(&sb, "completed", overlay.Completed)
		writeClass(&sb, "failed", overlay.Failed)
		writeClass(&sb, "abandoned", overlay.Abandoned)
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, class string, steps []string) {
	seen := make(map[string]bool)
	for _, step := range steps {
		safeID := sanitizeMermaidID(step)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		fmt.Fprintf(sb, "    class %s %s;\n", safeID, class)
	}
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
