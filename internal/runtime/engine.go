package runtime

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/cascade/internal/logging"
	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/flow"
	"github.com/aretw0/cascade/pkg/ports"
	"golang.org/x/time/rate"
)

// ConfigResolver resolves the effective configuration of a step.
type ConfigResolver interface {
	Resolve(step string) (domain.StepConfig, error)
}

// Engine traverses the flow graph for one artifact at a time.
// It is safe to run several artifacts concurrently with the same Engine.
type Engine struct {
	graph    *flow.Graph
	resolver ConfigResolver
	kinds    map[domain.StepKind]ports.StepKind

	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	maxParallel int
	rateLimit   domain.RateLimit
	shared      *rate.Limiter
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithKind registers the implementation of a step kind.
func WithKind(name domain.StepKind, kind ports.StepKind) EngineOption {
	return func(e *Engine) {
		e.kinds[name] = kind
	}
}

// WithMaxParallel bounds the number of steps of one artifact that run at once.
// Values below 2 select the sequential depth-first traversal.
func WithMaxParallel(n int) EngineOption {
	return func(e *Engine) {
		e.maxParallel = n
	}
}

// WithRateLimit sets the generation throttling policy.
func WithRateLimit(l domain.RateLimit) EngineOption {
	return func(e *Engine) {
		e.rateLimit = l
	}
}

// NewEngine creates an engine over a validated graph.
func NewEngine(graph *flow.Graph, resolver ConfigResolver, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:       graph,
		resolver:    resolver,
		kinds:       make(map[domain.StepKind]ports.StepKind),
		logger:      logging.NewNop(),
		maxParallel: 1,
		rateLimit:   domain.RateLimit{Policy: domain.RateNone},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rateLimit.Policy == domain.RateShared {
		e.shared = newLimiter(e.rateLimit)
	}
	return e
}

// HasKind reports whether a kind implementation is registered.
func (e *Engine) HasKind(kind domain.StepKind) bool {
	_, ok := e.kinds[kind]
	return ok
}

// Kinds returns the registered kind names, sorted.
func (e *Engine) Kinds() []string {
	names := make([]string, 0, len(e.kinds))
	for k := range e.kinds {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}

// Graph returns the flow graph.
func (e *Engine) Graph() *flow.Graph {
	return e.graph
}

// Run traverses the graph from the entry steps for one artifact.
// Branch failures are recorded in the report; Run itself never fails.
func (e *Engine) Run(ctx context.Context, runID string, entries []string, artifact domain.Artifact) *domain.RunReport {
	t := newTraversal(e, runID, entries, artifact)
	t.report.StartedAt = time.Now()

	t.logger.Info("Run started", "entries", entries, "parallel", e.maxParallel)

	var initial []task
	for _, entry := range entries {
		branchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		if e.rateLimit.Policy == domain.RatePerBranch {
			branchCtx = withLimiter(branchCtx, newLimiter(e.rateLimit))
		} else {
			branchCtx = withLimiter(branchCtx, e.shared)
		}

		initial = append(initial, task{
			ctx:       branchCtx,
			step:      entry,
			inputPath: artifact.Path,
			input:     artifact.Content,
		})
	}

	if e.maxParallel > 1 {
		t.runConcurrent(initial, e.maxParallel)
	} else {
		t.runSequential(initial)
	}

	t.report.FinishedAt = time.Now()
	report := t.report

	t.logger.Info("Run finished",
		"status", report.Status(),
		"completed", len(report.Completed),
		"failed", len(report.Failures),
		"duration", report.Duration(),
	)
	if e.hooks.OnRunFinish != nil {
		e.hooks.OnRunFinish(ctx, report)
	}
	return report
}
