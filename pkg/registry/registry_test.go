package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/ports"
	"github.com/aretw0/cascade/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Routing(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("upper", ports.GeneratorFunc(func(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
		return domain.Generation{Text: "UP:" + req.Prompt.Instruction}, nil
	}))

	assert.True(t, r.Has("upper"))
	assert.False(t, r.Has("openai"))
	assert.Equal(t, []string{"upper"}, r.Names())

	gen, err := r.Generate(context.Background(), domain.GenerationRequest{
		Prompt: domain.PromptAssembly{Instruction: "x"},
		Config: domain.StepConfig{Provider: "upper"},
	})
	require.NoError(t, err)
	assert.Equal(t, "UP:x", gen.Text)

	_, err = r.Generate(context.Background(), domain.GenerationRequest{
		Config: domain.StepConfig{Provider: "missing"},
	})
	assert.Error(t, err)
}
