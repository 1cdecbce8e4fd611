package ports

import (
	"context"

	"github.com/aretw0/cascade/pkg/domain"
)

// Generator is the external generation capability.
// Implementations must honour ctx cancellation so a branch can abort its in-flight call.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error)

// Generate calls f(ctx, req).
func (f GeneratorFunc) Generate(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
	return f(ctx, req)
}
