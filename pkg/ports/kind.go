package ports

import (
	"context"

	"github.com/aretw0/cascade/pkg/domain"
)

// StepKind is the capability set that runs one step invocation.
// The engine selects an implementation by StepConfig.Kind and calls the
// methods in order, stopping at the first error.
type StepKind interface {
	// ResolveConfig checks and completes a resolved configuration for this kind.
	ResolveConfig(cfg domain.StepConfig) (domain.StepConfig, error)

	// AssemblePrompt builds the system text, context messages and instruction.
	AssemblePrompt(ctx context.Context, inv *domain.Invocation, cfg domain.StepConfig) (domain.PromptAssembly, error)

	// Generate produces the output text.
	Generate(ctx context.Context, inv *domain.Invocation, cfg domain.StepConfig, prompt domain.PromptAssembly) (domain.Generation, error)

	// Persist stores the output and returns its location.
	Persist(ctx context.Context, inv *domain.Invocation, cfg domain.StepConfig, gen domain.Generation) (string, error)
}
