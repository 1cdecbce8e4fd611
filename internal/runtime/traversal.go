package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/ports"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// task is one scheduled step invocation.
type task struct {
	// ctx is the branch context; it carries the branch rate limiter.
	ctx       context.Context
	step      string
	inputPath string
	input     string
	chain     []string
}

// traversal holds the state of one artifact run.
//
// A step with several upstream steps reachable from the entries is a join:
// it runs once, after every one of those upstream steps has completed, and
// takes its triggering input from the first of them in name order.
type traversal struct {
	e        *Engine
	runID    string
	artifact domain.Artifact
	rc       *domain.RunContext
	logger   *slog.Logger

	expected map[string]int

	mu       sync.Mutex
	started  map[string]bool
	arrivals map[string]map[string]task
	report   *domain.RunReport
}

func newTraversal(e *Engine, runID string, entries []string, artifact domain.Artifact) *traversal {
	t := &traversal{
		e:        e,
		runID:    runID,
		artifact: artifact,
		rc:       domain.NewRunContext(artifact.Path),
		logger:   e.logger.With("run_id", runID, "artifact", artifact.Path),
		expected: make(map[string]int),
		started:  make(map[string]bool),
		arrivals: make(map[string]map[string]task),
		report: &domain.RunReport{
			RunID:    runID,
			Artifact: artifact.Path,
			Entries:  append([]string(nil), entries...),
		},
	}

	reach := make(map[string]bool)
	for _, entry := range entries {
		reach[entry] = true
		t.started[entry] = true
		for _, d := range e.graph.Descendants(entry) {
			reach[d] = true
		}
	}
	for step := range reach {
		for _, up := range e.graph.UpstreamOf(step) {
			if reach[up] {
				t.expected[step]++
			}
		}
	}
	return t
}

// runSequential walks the task tree depth first with an explicit stack.
// Children are visited in declaration order, each subtree before the next sibling.
func (t *traversal) runSequential(initial []task) {
	stack := make([]task, 0, len(initial))
	for i := len(initial) - 1; i >= 0; i-- {
		stack = append(stack, initial[i])
	}

	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children := t.execute(next)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// runConcurrent runs sibling branches in parallel, at most limit steps at a time.
// The semaphore is held only while a step executes, never while scheduling.
func (t *traversal) runConcurrent(initial []task, limit int) {
	sem := semaphore.NewWeighted(int64(limit))
	var g errgroup.Group

	var spawn func(task)
	spawn = func(tk task) {
		g.Go(func() error {
			if err := sem.Acquire(tk.ctx, 1); err != nil {
				t.fail(tk, domain.StagePending, err)
				return nil
			}
			children := t.execute(tk)
			sem.Release(1)

			for _, child := range children {
				spawn(child)
			}
			return nil
		})
	}

	for _, tk := range initial {
		spawn(tk)
	}
	_ = g.Wait()
}

// execute runs one step through its stages and returns the children ready to run.
func (t *traversal) execute(tk task) []task {
	ctx, cancel := context.WithCancel(tk.ctx)
	defer cancel()

	start := time.Now()
	inv := &domain.Invocation{
		RunID:     t.runID,
		Artifact:  t.artifact,
		Step:      tk.step,
		InputPath: tk.inputPath,
		Input:     tk.input,
		Chain:     tk.chain,
		Context:   t.rc,
	}

	t.emit(ctx, t.e.hooks.OnStepStart, domain.EventStepStart, tk, domain.StagePending, 0, nil)
	t.logger.Debug("Step started", "step", tk.step, "chain", tk.chain)

	if err := ctx.Err(); err != nil {
		t.fail(tk, domain.StagePending, err)
		return nil
	}

	cfg, kind, err := t.resolve(tk.step)
	if err != nil {
		t.fail(tk, domain.StagePending, err)
		return nil
	}

	prompt, err := kind.AssemblePrompt(ctx, inv, cfg)
	if err != nil {
		t.fail(tk, domain.StageConfigResolved, err)
		return nil
	}

	genStart := time.Now()
	gen, err := kind.Generate(ctx, inv, cfg, prompt)
	if err != nil && !errors.Is(err, domain.ErrGeneration) {
		err = &domain.GenerationError{Step: tk.step, Provider: cfg.Provider, Err: err}
	}
	if cfg.Kind != domain.KindRender {
		t.emitGenerate(ctx, tk.step, cfg, gen.Usage, time.Since(genStart), err != nil)
	}
	if err != nil {
		t.fail(tk, domain.StagePromptAssembled, err)
		return nil
	}
	t.logger.Debug("Generation finished",
		"step", tk.step,
		"provider", cfg.Provider,
		"model", cfg.Model,
		"prompt_tokens", gen.Usage.PromptTokens,
		"completion_tokens", gen.Usage.CompletionTokens,
	)

	loc, err := kind.Persist(ctx, inv, cfg, gen)
	if err != nil {
		if !errors.Is(err, domain.ErrPersist) {
			err = &domain.PersistError{Step: tk.step, Err: err}
		}
		t.fail(tk, domain.StageGenerated, err)
		return nil
	}

	if err := t.rc.Put(tk.step, gen.Text); err != nil {
		t.fail(tk, domain.StagePersisted, err)
		return nil
	}

	elapsed := time.Since(start)
	t.mu.Lock()
	t.report.Completed = append(t.report.Completed, domain.StepResult{
		Step:       tk.step,
		InputPath:  tk.inputPath,
		OutputPath: loc,
		Chain:      tk.chain,
		Usage:      gen.Usage,
		Duration:   elapsed,
	})
	t.mu.Unlock()

	t.logger.Info("Step completed", "step", tk.step, "output", loc, "duration", elapsed)
	t.emit(ctx, t.e.hooks.OnStepComplete, domain.EventStepComplete, tk, domain.StagePropagated, elapsed, nil)

	chain := append(slices.Clone(tk.chain), tk.step)
	var ready []task
	for _, child := range t.e.graph.DownstreamOf(tk.step) {
		next, ok := t.arrive(tk.step, task{
			ctx:       tk.ctx,
			step:      child,
			inputPath: loc,
			input:     gen.Text,
			chain:     chain,
		})
		if ok {
			ready = append(ready, next)
		}
	}
	return ready
}

// resolve produces the effective configuration and the kind that runs it.
func (t *traversal) resolve(step string) (domain.StepConfig, ports.StepKind, error) {
	cfg, err := t.e.resolver.Resolve(step)
	if err != nil {
		return cfg, nil, asConfigError(step, err)
	}
	if cfg.Kind == "" {
		cfg.Kind = domain.KindLLM
	}
	kind, ok := t.e.kinds[cfg.Kind]
	if !ok {
		return cfg, nil, &domain.ConfigError{Step: step, Field: "kind", Err: fmt.Errorf("unknown step kind %q", cfg.Kind)}
	}
	cfg, err = kind.ResolveConfig(cfg)
	if err != nil {
		return cfg, nil, asConfigError(step, err)
	}
	return cfg, kind, nil
}

func asConfigError(step string, err error) error {
	if errors.Is(err, domain.ErrConfig) {
		return err
	}
	return &domain.ConfigError{Step: step, Err: err}
}

// arrive records that from completed and reports whether child is now ready.
func (t *traversal) arrive(from string, next task) (task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	child := next.step
	if t.started[child] {
		t.logger.Debug("Step already triggered", "step", child, "from", from)
		return task{}, false
	}

	got := t.arrivals[child]
	if got == nil {
		got = make(map[string]task)
		t.arrivals[child] = got
	}
	got[from] = next
	if len(got) < t.expected[child] {
		t.logger.Debug("Join waiting", "step", child, "arrived", len(got), "expected", t.expected[child])
		return task{}, false
	}

	t.started[child] = true
	delete(t.arrivals, child)
	for _, up := range t.e.graph.UpstreamOf(child) {
		if primary, ok := got[up]; ok {
			return primary, true
		}
	}
	return next, true
}

// fail records a branch failure. The failing step's descendants are abandoned.
func (t *traversal) fail(tk task, stage domain.Stage, err error) {
	var abandoned []string
	for _, d := range t.e.graph.Descendants(tk.step) {
		if !t.rc.Has(d) {
			abandoned = append(abandoned, d)
		}
	}

	failure := domain.BranchFailure{
		Artifact:  t.artifact.Path,
		Step:      tk.step,
		Stage:     stage,
		Chain:     tk.chain,
		Abandoned: abandoned,
		Message:   err.Error(),
		Err:       err,
	}

	t.mu.Lock()
	t.report.Failures = append(t.report.Failures, failure)
	t.mu.Unlock()

	t.logger.Error("Step failed",
		"step", tk.step,
		"stage", stage,
		"abandoned", abandoned,
		"err", err,
	)
	t.emit(tk.ctx, t.e.hooks.OnStepFailed, domain.EventStepFailed, tk, stage, 0, err)
}

func (t *traversal) emit(ctx context.Context, hook func(context.Context, *domain.StepEvent), typ domain.EventType, tk task, stage domain.Stage, d time.Duration, err error) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, RunID: t.runID},
		Artifact:  t.artifact.Path,
		Step:      tk.step,
		Stage:     stage,
		Chain:     tk.chain,
		Duration:  d,
		Err:       err,
	})
}

func (t *traversal) emitGenerate(ctx context.Context, step string, cfg domain.StepConfig, usage domain.Usage, d time.Duration, isErr bool) {
	if t.e.hooks.OnGenerate == nil {
		return
	}
	t.e.hooks.OnGenerate(ctx, &domain.GenerateEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventGenerate, RunID: t.runID},
		Step:      step,
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		Usage:     usage,
		Duration:  d,
		IsError:   isErr,
	})
}
