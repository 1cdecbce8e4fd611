package cascade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/cascade/internal/adapters/file"
	"github.com/aretw0/cascade/internal/config"
	"github.com/aretw0/cascade/internal/logging"
	"github.com/aretw0/cascade/internal/naming"
	"github.com/aretw0/cascade/internal/runtime"
	"github.com/aretw0/cascade/internal/template"
	"github.com/aretw0/cascade/pkg/adapters/memory"
	"github.com/aretw0/cascade/pkg/artifact"
	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/dsl"
	"github.com/aretw0/cascade/pkg/flow"
	"github.com/aretw0/cascade/pkg/ports"
	"github.com/aretw0/cascade/pkg/registry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RunRecordName is the file written next to the step outputs of each artifact.
const RunRecordName = "run.json"

// Engine is the high-level entry point for the cascade library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime    *runtime.Engine
	graph      *flow.Graph
	resolver   *config.Resolver
	prompts    ports.PromptLoader
	artifacts  *artifact.Manager
	generators *registry.Registry
	runs       ports.RunStore

	defaults   map[string]any
	overrides  map[string]map[string]any
	declared   map[string]bool
	entries    []string
	store      ports.ArtifactStore
	locker     ports.DistributedLocker
	kinds      map[domain.StepKind]ports.StepKind
	runRecord  bool
	runtimeOps []runtime.EngineOption
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithFlow declares the flow graph as a step -> downstream mapping.
func WithFlow(edges map[string][]string) Option {
	return func(e *Engine) {
		e.graph = flow.New(edges)
	}
}

// WithGraph sets an already built flow graph.
func WithGraph(g *flow.Graph) Option {
	return func(e *Engine) {
		e.graph = g
	}
}

// WithPipeline uses a pipeline compiled by the dsl package.
// Its graph, overrides and inline prompts replace any set before.
func WithPipeline(p *dsl.Pipeline) Option {
	return func(e *Engine) {
		e.graph = p.Graph
		e.overrides = p.Overrides
		e.prompts = p.Prompts
		for _, s := range p.Graph.Steps() {
			e.declared[s] = true
		}
	}
}

// WithEntries overrides the entry steps of the graph.
func WithEntries(names ...string) Option {
	return func(e *Engine) {
		e.entries = append([]string(nil), names...)
	}
}

// WithDefaults sets the default step configuration (default_agent_config).
func WithDefaults(defaults map[string]any) Option {
	return func(e *Engine) {
		e.defaults = defaults
	}
}

// WithOverrides sets the per-step configuration overrides (agent_config).
func WithOverrides(overrides map[string]map[string]any) Option {
	return func(e *Engine) {
		e.overrides = overrides
	}
}

// WithPrompts sets the prompt loader. Without it every step uses the default prompts.
func WithPrompts(l ports.PromptLoader) Option {
	return func(e *Engine) {
		e.prompts = l
	}
}

// WithArtifacts sets where step outputs are written (default: ./output).
func WithArtifacts(s ports.ArtifactStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithRunStore persists every run report.
func WithRunStore(s ports.RunStore) Option {
	return func(e *Engine) {
		e.runs = s
	}
}

// WithLocker serialises output writes across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithRunRecord toggles writing run.json next to the outputs (default: on).
func WithRunRecord(enabled bool) Option {
	return func(e *Engine) {
		e.runRecord = enabled
	}
}

// WithGenerator registers a generation provider under name.
func WithGenerator(name string, g ports.Generator) Option {
	return func(e *Engine) {
		e.generators.Register(name, g)
	}
}

// WithStepKind registers a custom step kind, selected by the "kind" config key.
func WithStepKind(name domain.StepKind, kind ports.StepKind) Option {
	return func(e *Engine) {
		e.kinds[name] = kind
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxParallel bounds the concurrently running steps of one artifact (default 1).
func WithMaxParallel(n int) Option {
	return func(e *Engine) {
		e.runtimeOps = append(e.runtimeOps, runtime.WithMaxParallel(n))
	}
}

// WithRateLimit throttles generation calls.
func WithRateLimit(l domain.RateLimit) Option {
	return func(e *Engine) {
		e.runtimeOps = append(e.runtimeOps, runtime.WithRateLimit(l))
	}
}

// New builds an engine and validates its flow graph.
// It fails with a *domain.CycleError, a *domain.UnknownStepError or a
// *domain.ConfigError; all other errors surface per branch at run time.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		generators: registry.NewRegistry(),
		declared:   make(map[string]bool),
		kinds:      make(map[domain.StepKind]ports.StepKind),
		runRecord:  true,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.graph == nil || len(eng.graph.Steps()) == 0 {
		return nil, &domain.ConfigError{Err: errors.New("flow is empty")}
	}
	if len(eng.entries) > 0 {
		eng.graph = flow.New(eng.graph.Edges(), flow.WithEntries(eng.entries...))
	}
	if eng.graph.Has(domain.InputContentKey) {
		return nil, &domain.ConfigError{Step: domain.InputContentKey, Err: errors.New("step name is reserved")}
	}
	for _, step := range eng.graph.Steps() {
		if !template.IsName(step) {
			return nil, &domain.ConfigError{Step: step, Err: errors.New("step name must not contain whitespace or braces")}
		}
	}
	if eng.prompts == nil {
		eng.prompts = memory.NewLoader(nil)
	}
	if eng.store == nil {
		eng.store = file.NewArtifactStore("")
	}

	artifactOpts := []artifact.Option{artifact.WithLogger(eng.logger)}
	if eng.locker != nil {
		artifactOpts = append(artifactOpts, artifact.WithLocker(eng.locker))
	}
	eng.artifacts = artifact.NewManager(eng.store, artifactOpts...)

	eng.resolver = config.NewResolver(eng.defaults, eng.overrides, config.WithKinds(func(k domain.StepKind) bool {
		return eng.runtime.HasKind(k)
	}))

	if err := eng.graph.Validate(eng.Known); err != nil {
		return nil, err
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithKind(domain.KindLLM, runtime.NewLLMKind(eng.prompts, eng.artifacts, eng.generators)),
		runtime.WithKind(domain.KindRender, runtime.NewRenderKind(eng.prompts, eng.artifacts)),
	}
	for name, kind := range eng.kinds {
		runtimeOpts = append(runtimeOpts, runtime.WithKind(name, kind))
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOps...)

	eng.runtime = runtime.NewEngine(eng.graph, eng.resolver, runtimeOpts...)

	if eng.runRecord {
		if err := eng.checkRunRecordName(); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

// checkRunRecordName rejects steps whose explicit output_file would overwrite
// the run record. Steps that fail to resolve are left to surface at run time.
func (e *Engine) checkRunRecordName() error {
	for _, step := range e.graph.Steps() {
		cfg, err := e.resolver.Resolve(step)
		if err != nil {
			continue
		}
		if cfg.OutputFile != "" && filepath.Clean(cfg.OutputFile) == RunRecordName {
			return &domain.ConfigError{Step: step, Field: "output_file", Err: fmt.Errorf("%q is reserved for the run record", RunRecordName)}
		}
	}
	return nil
}

// Known reports whether a step has a config entry or prompt resources.
func (e *Engine) Known(step string) bool {
	if e.declared[step] || e.resolver.Known(step) {
		return true
	}
	_, err := e.prompts.LoadPrompt(context.Background(), step)
	return err == nil
}

// Graph returns the validated flow graph.
func (e *Engine) Graph() *flow.Graph {
	return e.graph
}

// Resolve returns the effective configuration of a step.
func (e *Engine) Resolve(step string) (domain.StepConfig, error) {
	return e.resolver.Resolve(step)
}

// Providers returns the registered provider names.
func (e *Engine) Providers() []string {
	return e.generators.Names()
}

// Kinds returns the registered step kinds.
func (e *Engine) Kinds() []string {
	return e.runtime.Kinds()
}

// Runs returns the run store, or nil when reports are not persisted.
func (e *Engine) Runs() ports.RunStore {
	return e.runs
}

// Artifacts returns the store holding step outputs.
func (e *Engine) Artifacts() ports.ArtifactStore {
	return e.artifacts
}

// RunArtifact traverses the flow for one input file.
// The error is non-nil only when the input cannot be read; branch failures
// are recorded in the returned report.
func (e *Engine) RunArtifact(ctx context.Context, path string) (*domain.RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	return e.RunContent(ctx, path, data), nil
}

// RunContent traverses the flow for an input whose content is already loaded.
// path names the input; it drives output naming and grouping.
func (e *Engine) RunContent(ctx context.Context, path string, content []byte) *domain.RunReport {
	runID := uuid.NewString()
	a := domain.Artifact{
		Path:    path,
		Key:     naming.Stem(path),
		Content: string(content),
	}

	report := e.runtime.Run(ctx, runID, e.graph.Entries(), a)
	e.record(ctx, a, report)
	return report
}

func (e *Engine) record(ctx context.Context, a domain.Artifact, report *domain.RunReport) {
	// Records are written even when ctx was cancelled mid-run.
	ctx = context.WithoutCancel(ctx)
	logger := e.logger.With("run_id", report.RunID, "artifact", a.Path)

	if e.runRecord {
		data, err := json.MarshalIndent(report, "", "  ")
		if err == nil {
			_, err = e.artifacts.Put(ctx, a.Key, RunRecordName, data)
		}
		if err != nil {
			logger.Warn("Failed to write run record", "error", err)
		}
	}
	if e.runs != nil {
		if err := e.runs.Save(ctx, report); err != nil {
			logger.Warn("Failed to save run report", "error", err)
		}
	}
}

// RunAll runs every artifact, at most parallel at a time (values below 1 mean 1).
// Reports keep the order of paths; an unreadable input leaves a nil report
// and contributes to the joined error.
func (e *Engine) RunAll(ctx context.Context, paths []string, parallel int) ([]*domain.RunReport, error) {
	if parallel < 1 {
		parallel = 1
	}
	reports := make([]*domain.RunReport, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, p := range paths {
		g.Go(func() error {
			reports[i], errs[i] = e.RunArtifact(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	return reports, errors.Join(errs...)
}
