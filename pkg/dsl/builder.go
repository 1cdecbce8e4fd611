package dsl

import (
	"fmt"

	"github.com/aretw0/cascade/pkg/adapters/memory"
	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/flow"
)

// Pipeline is the compiled output of a Builder.
type Pipeline struct {
	Graph *flow.Graph
	// Overrides holds the raw per-step configuration, merged later over the defaults.
	Overrides map[string]map[string]any
	Prompts   *memory.Loader
}

// Builder manages the pipeline construction.
type Builder struct {
	steps   map[string]*StepBuilder
	order   []string
	entries []string
}

// New creates a new pipeline builder.
func New() *Builder {
	return &Builder{
		steps: make(map[string]*StepBuilder),
	}
}

// Step declares a step in the pipeline.
// If the step already exists, it returns the existing builder.
func (b *Builder) Step(name string) *StepBuilder {
	if sb, ok := b.steps[name]; ok {
		return sb
	}
	sb := &StepBuilder{
		name:      name,
		overrides: make(map[string]any),
	}
	b.steps[name] = sb
	b.order = append(b.order, name)
	return sb
}

// Entry declares the entry steps explicitly.
func (b *Builder) Entry(names ...string) *Builder {
	b.entries = append(b.entries, names...)
	return b
}

// Build compiles and validates the pipeline.
// Every step referenced by Then must itself be declared with Step.
func (b *Builder) Build() (*Pipeline, error) {
	edges := make(map[string][]string, len(b.steps))
	overrides := make(map[string]map[string]any, len(b.steps))
	prompts := memory.NewLoader(nil)

	for _, name := range b.order {
		sb := b.steps[name]
		if name == domain.InputContentKey {
			return nil, &domain.ConfigError{Step: name, Err: fmt.Errorf("%q is reserved", name)}
		}
		edges[name] = append([]string(nil), sb.next...)
		if len(sb.overrides) > 0 {
			overrides[name] = sb.overrides
		}
		if sb.prompt.System != "" || sb.prompt.Template != "" {
			prompts.Set(name, sb.prompt)
		}
	}

	var opts []flow.Option
	if len(b.entries) > 0 {
		opts = append(opts, flow.WithEntries(b.entries...))
	}
	graph := flow.New(edges, opts...)

	known := func(name string) bool {
		_, ok := b.steps[name]
		return ok
	}
	if err := graph.Validate(known); err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}

	return &Pipeline{Graph: graph, Overrides: overrides, Prompts: prompts}, nil
}
