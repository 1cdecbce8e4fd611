package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/cascade/internal/naming"
	"github.com/aretw0/cascade/internal/template"
	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/ports"
	"github.com/aretw0/cascade/pkg/registry"
)

// Base implements prompt assembly and persistence shared by the built-in kinds.
type Base struct {
	Prompts   ports.PromptLoader
	Artifacts ports.ArtifactStore
}

// ResolveConfig accepts the configuration as is.
func (b Base) ResolveConfig(cfg domain.StepConfig) (domain.StepConfig, error) {
	return cfg, nil
}

// AssemblePrompt loads the prompt resources and renders the instruction.
// Missing resources fall back to the default system text and template.
func (b Base) AssemblePrompt(ctx context.Context, inv *domain.Invocation, cfg domain.StepConfig) (domain.PromptAssembly, error) {
	res, err := b.Prompts.LoadPrompt(ctx, cfg.PromptName())
	if err != nil && !errors.Is(err, domain.ErrPromptNotFound) {
		return domain.PromptAssembly{}, fmt.Errorf("failed to load prompt %q: %w", cfg.PromptName(), err)
	}

	system := res.System
	if system == "" {
		system = domain.DefaultSystemPrompt
	}
	tpl := res.Template
	if tpl == "" {
		tpl = domain.DefaultTemplate
	}

	var history []domain.Message
	for _, ancestor := range inv.Chain {
		if out, ok := inv.Context.Get(ancestor); ok {
			history = append(history, domain.NewContextMessage(ancestor, out))
		}
	}

	instruction, err := template.Render(tpl, template.FromContext(inv.Context, inv.Input))
	if err != nil {
		var renderErr *domain.RenderError
		if errors.As(err, &renderErr) {
			renderErr.Step = inv.Step
		}
		return domain.PromptAssembly{}, err
	}

	return domain.PromptAssembly{
		System:      system,
		Context:     history,
		Instruction: instruction,
	}, nil
}

// Persist writes the output under the artifact key with the derived name.
func (b Base) Persist(ctx context.Context, inv *domain.Invocation, cfg domain.StepConfig, gen domain.Generation) (string, error) {
	name := naming.NameFor(inv.Step, inv.InputPath, cfg)
	loc, err := b.Artifacts.Put(ctx, inv.Artifact.Key, name, []byte(gen.Text))
	if err != nil {
		return "", &domain.PersistError{Step: inv.Step, Path: name, Err: err}
	}
	return loc, nil
}

// LLMKind sends the prompt to the provider named by the step configuration.
type LLMKind struct {
	Base
	Generators *registry.Registry
}

// NewLLMKind creates the default "llm" kind.
func NewLLMKind(prompts ports.PromptLoader, artifacts ports.ArtifactStore, generators *registry.Registry) *LLMKind {
	return &LLMKind{
		Base:       Base{Prompts: prompts, Artifacts: artifacts},
		Generators: generators,
	}
}

// ResolveConfig requires a model and a registered provider.
func (k *LLMKind) ResolveConfig(cfg domain.StepConfig) (domain.StepConfig, error) {
	if cfg.Model == "" {
		return cfg, &domain.ConfigError{Step: cfg.Name, Field: "model", Err: errors.New("model is empty")}
	}
	if !k.Generators.Has(cfg.Provider) {
		return cfg, &domain.ConfigError{Step: cfg.Name, Field: "provider", Err: fmt.Errorf("no generation adapter registered for provider %q", cfg.Provider)}
	}
	return cfg, nil
}

// Generate calls the provider, honouring the step timeout and the rate limiter carried by ctx.
func (k *LLMKind) Generate(ctx context.Context, inv *domain.Invocation, cfg domain.StepConfig, prompt domain.PromptAssembly) (domain.Generation, error) {
	wrap := func(err error) error {
		return &domain.GenerationError{Step: inv.Step, Provider: cfg.Provider, Err: err}
	}

	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return domain.Generation{}, wrap(err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	if err := waitLimiter(ctx); err != nil {
		return domain.Generation{}, wrap(err)
	}

	gen, err := k.Generators.Generate(ctx, domain.GenerationRequest{
		Step:   inv.Step,
		Prompt: prompt,
		Config: cfg,
	})
	if err != nil {
		return domain.Generation{}, wrap(err)
	}

	if cfg.ExtractCodeBlock {
		block, ok := ExtractCodeBlock(gen.Text)
		if !ok {
			return domain.Generation{}, wrap(ErrMalformedResponse)
		}
		gen.Text = block
	}
	return gen, nil
}

// RenderKind persists the rendered instruction without calling a provider.
type RenderKind struct {
	Base
}

// NewRenderKind creates the "render" kind.
func NewRenderKind(prompts ports.PromptLoader, artifacts ports.ArtifactStore) *RenderKind {
	return &RenderKind{Base: Base{Prompts: prompts, Artifacts: artifacts}}
}

// Generate returns the instruction text.
func (k *RenderKind) Generate(ctx context.Context, inv *domain.Invocation, cfg domain.StepConfig, prompt domain.PromptAssembly) (domain.Generation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Generation{}, &domain.GenerationError{Step: inv.Step, Provider: string(domain.KindRender), Err: err}
	}
	text := prompt.Instruction
	if cfg.ExtractCodeBlock {
		block, ok := ExtractCodeBlock(text)
		if !ok {
			return domain.Generation{}, &domain.GenerationError{Step: inv.Step, Provider: string(domain.KindRender), Err: ErrMalformedResponse}
		}
		text = block
	}
	return domain.Generation{Text: text}, nil
}

var (
	_ ports.StepKind = (*LLMKind)(nil)
	_ ports.StepKind = (*RenderKind)(nil)
)
