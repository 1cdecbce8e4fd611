package ports

import (
	"context"

	"github.com/aretw0/cascade/pkg/domain"
)

// PromptLoader defines how the engine retrieves prompt resources.
// This allows the storage layer (directory layout, Loam, Memory) to be decoupled.
type PromptLoader interface {
	// LoadPrompt retrieves the prompt resources of a step by name.
	// It returns domain.ErrPromptNotFound if neither a system text nor a template exists.
	LoadPrompt(ctx context.Context, name string) (domain.PromptResource, error)

	// ListPrompts returns the names of every available prompt resource.
	ListPrompts(ctx context.Context) ([]string, error)
}
