// Package echo provides a generator that answers without calling a model.
// It backs dry runs and tests.
package echo

import (
	"context"

	"github.com/aretw0/cascade/pkg/domain"
)

// Name is the provider name the generator registers under.
const Name = "echo"

// Prefix is prepended to the instruction.
const Prefix = "echo:"

// Generator returns Prefix followed by the rendered instruction.
type Generator struct{}

// New returns an echo generator.
func New() Generator {
	return Generator{}
}

// Generate echoes the instruction. It fails only when ctx is already done.
func (Generator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Generation{}, err
	}
	return domain.Generation{Text: Prefix + req.Prompt.Instruction}, nil
}
