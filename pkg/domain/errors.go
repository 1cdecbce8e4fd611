package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every typed error below matches one of them via errors.Is.
var (
	ErrConfig      = errors.New("config error")
	ErrCycle       = errors.New("cycle detected")
	ErrUnknownStep = errors.New("unknown step")
	ErrRender      = errors.New("render error")
	ErrGeneration  = errors.New("generation failed")
	ErrPersist     = errors.New("persist failed")

	// ErrDuplicateOutput is returned when a RunContext key is written twice.
	ErrDuplicateOutput = errors.New("output already recorded")

	// ErrPromptNotFound is returned by prompt loaders for missing resources.
	ErrPromptNotFound = errors.New("prompt not found")

	// ErrRunNotFound is returned when a run record cannot be found in the store.
	ErrRunNotFound = errors.New("run not found")
)

// ConfigError reports an unresolvable step configuration.
type ConfigError struct {
	Step  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("config error")
	if e.Step != "" {
		fmt.Fprintf(&sb, ": step %q", e.Step)
	}
	if e.Field != "" {
		fmt.Fprintf(&sb, ": field %q", e.Field)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ConfigError) Unwrap() error       { return e.Err }
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// CycleError reports a directed cycle in the flow graph.
// Path starts and ends with the same step.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// UnknownStepError reports a flow reference to a step with no config and no prompt resources.
type UnknownStepError struct {
	Step         string
	ReferencedBy string
}

func (e *UnknownStepError) Error() string {
	if e.ReferencedBy == "" {
		return fmt.Sprintf("unknown step %q", e.Step)
	}
	return fmt.Sprintf("unknown step %q (referenced by %q)", e.Step, e.ReferencedBy)
}

func (e *UnknownStepError) Is(target error) bool { return target == ErrUnknownStep }

// RenderError reports template markers that reference outputs missing from the RunContext.
type RenderError struct {
	Step    string
	Missing []string
}

func (e *RenderError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("render error: unresolved references %v", e.Missing)
	}
	return fmt.Sprintf("render error: step %q: unresolved references %v", e.Step, e.Missing)
}

func (e *RenderError) Is(target error) bool { return target == ErrRender }

// GenerationError wraps a failure of the generation capability.
type GenerationError struct {
	Step     string
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: step %q (provider %q): %v", e.Step, e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error       { return e.Err }
func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// PersistError reports that an output could not be written.
type PersistError struct {
	Step string
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist failed: step %q to %q: %v", e.Step, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error       { return e.Err }
func (e *PersistError) Is(target error) bool { return target == ErrPersist }
