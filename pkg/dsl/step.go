package dsl

import "github.com/aretw0/cascade/pkg/domain"

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	name      string
	next      []string
	overrides map[string]any
	prompt    domain.PromptResource
}

// System sets the system instruction of the step.
func (s *StepBuilder) System(text string) *StepBuilder {
	s.prompt.System = text
	return s
}

// Template sets the instruction template of the step.
func (s *StepBuilder) Template(text string) *StepBuilder {
	s.prompt.Template = text
	return s
}

// Then appends downstream steps, preserving order.
func (s *StepBuilder) Then(steps ...string) *StepBuilder {
	s.next = append(s.next, steps...)
	return s
}

// Set overrides a configuration key for the step (e.g. "model", "max_tokens").
func (s *StepBuilder) Set(key string, value any) *StepBuilder {
	s.overrides[key] = value
	return s
}

// Kind selects the step kind.
func (s *StepBuilder) Kind(kind domain.StepKind) *StepBuilder {
	return s.Set("kind", string(kind))
}

// Provider selects the generation provider.
func (s *StepBuilder) Provider(name string) *StepBuilder {
	return s.Set("provider", name)
}

// OutputFile fixes the output file name.
func (s *StepBuilder) OutputFile(name string) *StepBuilder {
	return s.Set("output_file", name)
}

// OutputSuffix names the output after the triggering input stem plus suffix.
func (s *StepBuilder) OutputSuffix(suffix string) *StepBuilder {
	return s.Set("output_file_suffix", suffix)
}

// Terminal clears the downstream steps.
func (s *StepBuilder) Terminal() *StepBuilder {
	s.next = nil
	return s
}
