package flow

import (
	"slices"
	"sort"
)

// Graph is the declared DAG of step name to ordered downstream step names.
type Graph struct {
	edges    map[string][]string
	upstream map[string][]string
	steps    []string
	entries  []string
}

// Option configures a Graph.
type Option func(*Graph)

// WithEntries declares the entry steps explicitly.
// Without it, every step that has no upstream step is an entry.
func WithEntries(names ...string) Option {
	return func(g *Graph) {
		g.entries = append([]string(nil), names...)
	}
}

// New creates a Graph from a step -> downstream mapping.
// The mapping is copied; later changes to it do not affect the Graph.
func New(edges map[string][]string, opts ...Option) *Graph {
	g := &Graph{
		edges:    make(map[string][]string, len(edges)),
		upstream: make(map[string][]string),
	}

	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			g.steps = append(g.steps, name)
		}
	}

	keys := make([]string, 0, len(edges))
	for k := range edges {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, from := range keys {
		add(from)
		downstream := append([]string(nil), edges[from]...)
		g.edges[from] = downstream
		for _, to := range downstream {
			add(to)
			if !slices.Contains(g.upstream[to], from) {
				g.upstream[to] = append(g.upstream[to], from)
			}
		}
	}
	sort.Strings(g.steps)

	for _, opt := range opts {
		opt(g)
	}

	if g.entries == nil {
		for _, s := range g.steps {
			if len(g.upstream[s]) == 0 {
				g.entries = append(g.entries, s)
			}
		}
	}

	return g
}

// DownstreamOf returns the ordered downstream steps of a step (empty if terminal).
func (g *Graph) DownstreamOf(step string) []string {
	return append([]string{}, g.edges[step]...)
}

// UpstreamOf returns the steps that trigger the given step, sorted by name.
func (g *Graph) UpstreamOf(step string) []string {
	up := append([]string{}, g.upstream[step]...)
	sort.Strings(up)
	return up
}

// Steps returns every step named in the graph, sorted.
func (g *Graph) Steps() []string {
	return append([]string(nil), g.steps...)
}

// Entries returns the entry steps.
func (g *Graph) Entries() []string {
	return append([]string(nil), g.entries...)
}

// Has reports whether the step is named in the graph.
func (g *Graph) Has(step string) bool {
	_, ok := slices.BinarySearch(g.steps, step)
	return ok
}

// Edges returns a copy of the step -> downstream mapping.
func (g *Graph) Edges() map[string][]string {
	out := make(map[string][]string, len(g.edges))
	for k, v := range g.edges {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Descendants returns every step transitively downstream of step,
// in depth-first declaration order, without duplicates.
func (g *Graph) Descendants(step string) []string {
	var out []string
	seen := map[string]bool{step: true}

	var walk func(string)
	walk = func(s string) {
		for _, next := range g.edges[s] {
			if seen[next] {
				continue
			}
			seen[next] = true
			out = append(out, next)
			walk(next)
		}
	}
	walk(step)

	return out
}
