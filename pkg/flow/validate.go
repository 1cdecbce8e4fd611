package flow

import "github.com/aretw0/cascade/pkg/domain"

// Validate checks the structural integrity of the graph.
//
// known reports whether a step name can be run (it has a config entry or
// prompt resources). A nil known skips the existence check.
// It returns a *domain.UnknownStepError or a *domain.CycleError.
func (g *Graph) Validate(known func(string) bool) error {
	if known != nil {
		if err := g.validateKnown(known); err != nil {
			return err
		}
	}
	return g.detectCycles()
}

func (g *Graph) validateKnown(known func(string) bool) error {
	for _, entry := range g.entries {
		if !g.Has(entry) && !known(entry) {
			return &domain.UnknownStepError{Step: entry}
		}
	}

	for _, from := range g.steps {
		if _, declared := g.edges[from]; declared && !known(from) {
			return &domain.UnknownStepError{Step: from}
		}
		for _, to := range g.edges[from] {
			if !known(to) {
				return &domain.UnknownStepError{Step: to, ReferencedBy: from}
			}
		}
	}
	return nil
}

// detectCycles walks depth-first from every entry, then from every remaining
// step, tracking the current path.
func (g *Graph) detectCycles() error {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(g.steps))
	var path []string

	var visit func(string) error
	visit = func(step string) error {
		switch state[step] {
		case onPath:
			start := 0
			for i, s := range path {
				if s == step {
					start = i
					break
				}
			}
			cycle := append(append([]string(nil), path[start:]...), step)
			return &domain.CycleError{Path: cycle}
		case done:
			return nil
		}

		state[step] = onPath
		path = append(path, step)
		for _, next := range g.edges[step] {
			if err := visit(next); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[step] = done
		return nil
	}

	roots := append(g.Entries(), g.steps...)
	for _, root := range roots {
		if err := visit(root); err != nil {
			return err
		}
	}
	return nil
}
