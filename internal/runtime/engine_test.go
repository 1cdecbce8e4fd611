package runtime_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/cascade/internal/config"
	"github.com/aretw0/cascade/internal/runtime"
	"github.com/aretw0/cascade/pkg/adapters/memory"
	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/flow"
	"github.com/aretw0/cascade/pkg/ports"
	"github.com/aretw0/cascade/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine    *runtime.Engine
	artifacts *memory.ArtifactStore
	prompts   *memory.Loader

	mu    sync.Mutex
	calls []domain.GenerationRequest
}

func (f *fixture) requests() []domain.GenerationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.GenerationRequest(nil), f.calls...)
}

func (f *fixture) request(step string) (domain.GenerationRequest, bool) {
	for _, r := range f.requests() {
		if r.Step == step {
			return r, true
		}
	}
	return domain.GenerationRequest{}, false
}

func (f *fixture) output(t *testing.T, key, name string) string {
	t.Helper()
	data, err := f.artifacts.Get(context.Background(), key+"/"+name)
	require.NoError(t, err)
	return string(data)
}

type generateFunc func(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error)

func echo(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
	return domain.Generation{Text: "echo:" + req.Prompt.Instruction}, nil
}

func newFixture(t *testing.T, edges map[string][]string, overrides map[string]map[string]any, gen generateFunc, opts ...runtime.EngineOption) *fixture {
	t.Helper()

	graph := flow.New(edges)
	require.NoError(t, graph.Validate(nil))

	f := &fixture{
		artifacts: memory.NewArtifactStore(),
		prompts:   memory.NewLoader(nil),
	}

	reg := registry.NewRegistry()
	reg.Register("stub", ports.GeneratorFunc(func(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
		f.mu.Lock()
		f.calls = append(f.calls, req)
		f.mu.Unlock()
		return gen(ctx, req)
	}))

	resolver := config.NewResolver(map[string]any{"provider": "stub", "model": "test"}, overrides)

	all := append([]runtime.EngineOption{
		runtime.WithKind(domain.KindLLM, runtime.NewLLMKind(f.prompts, f.artifacts, reg)),
		runtime.WithKind(domain.KindRender, runtime.NewRenderKind(f.prompts, f.artifacts)),
	}, opts...)
	f.engine = runtime.NewEngine(graph, resolver, all...)
	return f
}

func artifact(path, content string) domain.Artifact {
	stem := strings.TrimSuffix(path[strings.LastIndex(path, "/")+1:], ".md")
	return domain.Artifact{Path: path, Key: stem, Content: content}
}

func completedSteps(r *domain.RunReport) []string {
	var names []string
	for _, c := range r.Completed {
		names = append(names, c.Step)
	}
	return names
}

func TestEngine_EchoChain(t *testing.T) {
	edges := map[string][]string{"doc": {"brd"}, "brd": {"specs"}, "specs": {}}
	f := newFixture(t, edges, nil, echo)

	report := f.engine.Run(context.Background(), "run-1", []string{"doc"}, artifact("repo/doc.md", "X=1"))

	require.Empty(t, report.Failures)
	assert.Equal(t, domain.RunSucceeded, report.Status())
	assert.Equal(t, []string{"doc", "brd", "specs"}, completedSteps(report))

	doc := f.output(t, "doc", "doc.txt")
	brd := f.output(t, "doc", "brd.txt")
	specs := f.output(t, "doc", "specs.txt")
	for _, out := range []string{doc, brd, specs} {
		assert.True(t, strings.HasPrefix(out, "echo:"), out)
	}
	assert.Equal(t, "echo:X=1", doc)

	brdReq, ok := f.request("brd")
	require.True(t, ok)
	assert.Contains(t, brdReq.Prompt.Instruction, doc)

	specsReq, ok := f.request("specs")
	require.True(t, ok)
	assert.Contains(t, specsReq.Prompt.Instruction, brd)
}

func TestEngine_PromptAssembly(t *testing.T) {
	edges := map[string][]string{"doc": {"brd"}, "brd": {"specs"}}
	f := newFixture(t, edges, nil, echo)
	f.prompts.Set("specs", domain.PromptResource{
		System:   "You write specs.",
		Template: "From {{doc}} and {{ brd }}:\n{{input_content}}",
	})

	report := f.engine.Run(context.Background(), "run-1", []string{"doc"}, artifact("repo/doc.md", "X=1"))
	require.Empty(t, report.Failures)

	req, ok := f.request("specs")
	require.True(t, ok)

	assert.Equal(t, "You write specs.", req.Prompt.System)
	require.Len(t, req.Prompt.Context, 2)
	assert.Equal(t, domain.Message{Role: domain.RoleAssistant, Content: "[Context from doc]:\necho:X=1"}, req.Prompt.Context[0])
	assert.Equal(t, "[Context from brd]:\necho:echo:X=1", req.Prompt.Context[1].Content)
	assert.Equal(t, "From echo:X=1 and echo:echo:X=1:\necho:echo:X=1", req.Prompt.Instruction)

	docReq, _ := f.request("doc")
	assert.Equal(t, domain.DefaultSystemPrompt, docReq.Prompt.System)
	assert.Empty(t, docReq.Prompt.Context)

	msgs := req.Prompt.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, domain.RoleSystem, msgs[0].Role)
	assert.Equal(t, domain.RoleUser, msgs[3].Role)
}

func TestEngine_FailureIsolation(t *testing.T) {
	edges := map[string][]string{"A": {"B", "C"}, "B": {"D"}, "C": {"E"}}
	gen := func(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
		if req.Step == "B" {
			return domain.Generation{}, errors.New("provider unavailable")
		}
		return echo(ctx, req)
	}
	f := newFixture(t, edges, nil, gen)

	report := f.engine.Run(context.Background(), "run-1", []string{"A"}, artifact("repo/in.md", "payload"))

	assert.ElementsMatch(t, []string{"A", "C", "E"}, completedSteps(report))
	_, ranD := f.request("D")
	assert.False(t, ranD, "D must never execute")

	require.Len(t, report.Failures, 1)
	failure := report.Failures[0]
	assert.Equal(t, []string{"B", "D"}, failure.Branch())
	assert.Equal(t, "repo/in.md", failure.Artifact)
	assert.Equal(t, domain.StagePromptAssembled, failure.Stage)
	assert.Equal(t, []string{"A"}, failure.Chain)
	assert.ErrorIs(t, failure.Err, domain.ErrGeneration)

	var genErr *domain.GenerationError
	require.ErrorAs(t, failure.Err, &genErr)
	assert.Equal(t, "stub", genErr.Provider)

	assert.Equal(t, domain.RunPartial, report.Status())
	assert.NotContains(t, f.artifacts.Locations(), "in/B.txt")
	assert.NotContains(t, f.artifacts.Locations(), "in/D.txt")
}

func TestEngine_EntryFailure(t *testing.T) {
	edges := map[string][]string{"A": {"B"}}
	gen := func(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
		return domain.Generation{}, errors.New("down")
	}
	f := newFixture(t, edges, nil, gen)

	report := f.engine.Run(context.Background(), "run-1", []string{"A"}, artifact("repo/in.md", ""))
	assert.Equal(t, domain.RunFailed, report.Status())
	assert.Equal(t, []string{"A", "B"}, report.Failures[0].Branch())
}

func TestEngine_ConfigAndRenderFailures(t *testing.T) {
	edges := map[string][]string{"A": {"B", "C", "D"}}
	overrides := map[string]map[string]any{
		"B": {"provider": "unregistered"},
		"D": {"kind": "shell"},
	}
	f := newFixture(t, edges, overrides, echo)
	f.prompts.Set("C", domain.PromptResource{Template: "needs {{ghost}}"})

	report := f.engine.Run(context.Background(), "run-1", []string{"A"}, artifact("repo/in.md", "x"))

	assert.Equal(t, []string{"A"}, completedSteps(report))
	require.Len(t, report.Failures, 3)

	byStep := map[string]domain.BranchFailure{}
	for _, fl := range report.Failures {
		byStep[fl.Step] = fl
	}

	assert.ErrorIs(t, byStep["B"].Err, domain.ErrConfig)
	assert.Equal(t, domain.StagePending, byStep["B"].Stage)

	assert.ErrorIs(t, byStep["C"].Err, domain.ErrRender)
	assert.Equal(t, domain.StageConfigResolved, byStep["C"].Stage)
	var renderErr *domain.RenderError
	require.ErrorAs(t, byStep["C"].Err, &renderErr)
	assert.Equal(t, "C", renderErr.Step)
	assert.Equal(t, []string{"ghost"}, renderErr.Missing)

	assert.ErrorIs(t, byStep["D"].Err, domain.ErrConfig)
	assert.Len(t, f.requests(), 1, "only A reaches the provider")
}

func TestEngine_PersistFailure(t *testing.T) {
	edges := map[string][]string{"A": {"B"}}
	f := newFixture(t, edges, nil, echo)

	broken := runtime.NewLLMKind(f.prompts, failingStore{}, registryWith("stub", echo))
	f.engine = runtime.NewEngine(flow.New(edges), config.NewResolver(map[string]any{"provider": "stub", "model": "m"}, nil),
		runtime.WithKind(domain.KindLLM, broken))

	report := f.engine.Run(context.Background(), "run-1", []string{"A"}, artifact("repo/in.md", "x"))
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, domain.ErrPersist)
	assert.Equal(t, domain.StageGenerated, report.Failures[0].Stage)
	assert.Equal(t, []string{"B"}, report.Failures[0].Abandoned)
}

type failingStore struct{}

func (failingStore) Put(ctx context.Context, key, name string, data []byte) (string, error) {
	return "", errors.New("disk full")
}

func (failingStore) Get(ctx context.Context, loc string) ([]byte, error) {
	return nil, errors.New("not found")
}

func registryWith(name string, gen generateFunc) *registry.Registry {
	reg := registry.NewRegistry()
	reg.Register(name, ports.GeneratorFunc(gen))
	return reg
}

func TestEngine_OutputNaming(t *testing.T) {
	edges := map[string][]string{"doc": {"brd", "specs"}}
	overrides := map[string]map[string]any{
		"doc":   {"output_file_suffix": "_doc"},
		"brd":   {"output_file_suffix": "_brd"},
		"specs": {"output_file": "specs.md"},
	}
	f := newFixture(t, edges, overrides, echo)

	report := f.engine.Run(context.Background(), "run-1", []string{"doc"}, artifact("repo/main.md", "x"))
	require.Empty(t, report.Failures)

	locs := f.artifacts.Locations()
	sort.Strings(locs)
	assert.Equal(t, []string{"main/main_doc.txt", "main/main_doc_brd.txt", "main/specs.md"}, locs)

	// A re-run overwrites instead of duplicating.
	f.engine.Run(context.Background(), "run-2", []string{"doc"}, artifact("repo/main.md", "y"))
	assert.Len(t, f.artifacts.Locations(), 3)
	assert.Equal(t, "echo:y", f.output(t, "main", "main_doc.txt"))
}

func TestEngine_RenderKind(t *testing.T) {
	edges := map[string][]string{"doc": {"summary"}}
	overrides := map[string]map[string]any{"summary": {"kind": "render", "output_file": "summary.md"}}
	f := newFixture(t, edges, overrides, echo)
	f.prompts.Set("summary", domain.PromptResource{Template: "# Summary\n{{doc}}\n"})

	report := f.engine.Run(context.Background(), "run-1", []string{"doc"}, artifact("repo/a.md", "X"))
	require.Empty(t, report.Failures)

	assert.Equal(t, "# Summary\necho:X\n", f.output(t, "a", "summary.md"))
	assert.Len(t, f.requests(), 1)
}

func TestEngine_ExtractCodeBlock(t *testing.T) {
	edges := map[string][]string{"code": {}, "prose": {}}
	overrides := map[string]map[string]any{
		"code":  {"extract_code_block": true},
		"prose": {"extract_code_block": true},
	}
	gen := func(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
		if req.Step == "code" {
			return domain.Generation{Text: "Here:\n```go\npackage main\n```\nDone."}, nil
		}
		return domain.Generation{Text: "no code here"}, nil
	}
	f := newFixture(t, edges, overrides, gen)

	report := f.engine.Run(context.Background(), "run-1", []string{"code", "prose"}, artifact("repo/a.md", ""))

	assert.Equal(t, "package main", f.output(t, "a", "code.txt"))
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "prose", report.Failures[0].Step)
	assert.ErrorIs(t, report.Failures[0].Err, runtime.ErrMalformedResponse)
}

func TestEngine_Timeout(t *testing.T) {
	edges := map[string][]string{"slow": {}}
	overrides := map[string]map[string]any{"slow": {"timeout": "20ms"}}
	gen := func(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
		<-ctx.Done()
		return domain.Generation{}, ctx.Err()
	}
	f := newFixture(t, edges, overrides, gen)

	report := f.engine.Run(context.Background(), "run-1", []string{"slow"}, artifact("repo/a.md", ""))
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, context.DeadlineExceeded)
	assert.ErrorIs(t, report.Failures[0].Err, domain.ErrGeneration)
}

func TestEngine_Join(t *testing.T) {
	edges := map[string][]string{"A": {"B", "C"}, "B": {"D"}, "C": {"D"}}
	f := newFixture(t, edges, nil, echo)
	f.prompts.Set("D", domain.PromptResource{Template: "{{B}}|{{C}}"})

	report := f.engine.Run(context.Background(), "run-1", []string{"A"}, artifact("repo/a.md", "x"))
	require.Empty(t, report.Failures)
	assert.Equal(t, []string{"A", "B", "C", "D"}, completedSteps(report))

	req, ok := f.request("D")
	require.True(t, ok)
	assert.Equal(t, "echo:echo:x|echo:echo:x", req.Prompt.Instruction)
	assert.Equal(t, []string{"A", "B"}, completedChain(report, "D"), "join takes the first upstream in name order")
}

func TestEngine_JoinAbandonedWhenUpstreamFails(t *testing.T) {
	edges := map[string][]string{"A": {"B", "C"}, "B": {"D"}, "C": {"D"}}
	gen := func(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
		if req.Step == "C" {
			return domain.Generation{}, errors.New("boom")
		}
		return echo(ctx, req)
	}
	f := newFixture(t, edges, nil, gen)

	report := f.engine.Run(context.Background(), "run-1", []string{"A"}, artifact("repo/a.md", "x"))
	assert.ElementsMatch(t, []string{"A", "B"}, completedSteps(report))
	require.Len(t, report.Failures, 1)
	assert.Equal(t, []string{"C", "D"}, report.Failures[0].Branch())
}

func completedChain(r *domain.RunReport, step string) []string {
	for _, c := range r.Completed {
		if c.Step == step {
			return c.Chain
		}
	}
	return nil
}

func TestEngine_ConcurrentMatchesSequential(t *testing.T) {
	edges := map[string][]string{
		"root":  {"left", "right"},
		"left":  {"left2"},
		"right": {"right2"},
	}
	slowEcho := func(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
		if strings.HasPrefix(req.Step, "left") {
			time.Sleep(5 * time.Millisecond)
		}
		return echo(ctx, req)
	}

	run := func(parallel int) map[string]string {
		f := newFixture(t, edges, nil, slowEcho, runtime.WithMaxParallel(parallel))
		report := f.engine.Run(context.Background(), "run", []string{"root"}, artifact("repo/a.md", "seed"))
		require.Empty(t, report.Failures)

		out := map[string]string{}
		for _, loc := range f.artifacts.Locations() {
			data, err := f.artifacts.Get(context.Background(), loc)
			require.NoError(t, err)
			out[loc] = string(data)
		}
		return out
	}

	sequential := run(1)
	for i := 0; i < 5; i++ {
		assert.Equal(t, sequential, run(4))
	}
	assert.Len(t, sequential, 5)
}

func TestEngine_ConcurrentFailureIsolation(t *testing.T) {
	edges := map[string][]string{"A": {"B", "C"}, "B": {"D"}, "C": {"E"}}
	gen := func(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
		if req.Step == "B" {
			return domain.Generation{}, errors.New("boom")
		}
		return echo(ctx, req)
	}
	f := newFixture(t, edges, nil, gen, runtime.WithMaxParallel(3))

	report := f.engine.Run(context.Background(), "run-1", []string{"A"}, artifact("repo/in.md", "p"))
	assert.ElementsMatch(t, []string{"A", "C", "E"}, completedSteps(report))
	require.Len(t, report.Failures, 1)
	assert.Equal(t, []string{"B", "D"}, report.Failures[0].Branch())
}

func TestEngine_CancelledContext(t *testing.T) {
	f := newFixture(t, map[string][]string{"A": {"B"}}, nil, echo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := f.engine.Run(ctx, "run-1", []string{"A"}, artifact("repo/in.md", "p"))
	assert.Empty(t, report.Completed)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, context.Canceled)
	assert.Equal(t, domain.RunFailed, report.Status())
}

func TestEngine_Hooks(t *testing.T) {
	edges := map[string][]string{"A": {"B"}}
	gen := func(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
		if req.Step == "B" {
			return domain.Generation{}, errors.New("boom")
		}
		return domain.Generation{Text: "ok", Usage: domain.Usage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4}}, nil
	}

	var mu sync.Mutex
	var events []string
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, s)
	}
	hooks := domain.LifecycleHooks{
		OnStepStart:    func(ctx context.Context, e *domain.StepEvent) { record("start:" + e.Step) },
		OnStepComplete: func(ctx context.Context, e *domain.StepEvent) { record("complete:" + e.Step) },
		OnStepFailed:   func(ctx context.Context, e *domain.StepEvent) { record("failed:" + e.Step) },
		OnGenerate: func(ctx context.Context, e *domain.GenerateEvent) {
			if e.IsError {
				record("generate-error:" + e.Step)
				return
			}
			record("generate:" + e.Step)
		},
		OnRunFinish: func(ctx context.Context, r *domain.RunReport) { record("finish:" + r.RunID) },
	}

	f := newFixture(t, edges, nil, gen, runtime.WithLifecycleHooks(hooks))
	f.engine.Run(context.Background(), "r1", []string{"A"}, artifact("repo/in.md", "p"))

	assert.Equal(t, []string{
		"start:A", "generate:A", "complete:A",
		"start:B", "generate-error:B", "failed:B",
		"finish:r1",
	}, events)
}

func TestEngine_RateLimitShared(t *testing.T) {
	edges := map[string][]string{"a": {}, "b": {}, "c": {}}
	f := newFixture(t, edges, nil, echo,
		runtime.WithMaxParallel(3),
		runtime.WithRateLimit(domain.RateLimit{Policy: domain.RateShared, RPS: 20, Burst: 1}),
	)

	start := time.Now()
	report := f.engine.Run(context.Background(), "r", []string{"a", "b", "c"}, artifact("repo/in.md", "p"))
	require.Empty(t, report.Failures)

	// Three calls at 20/s with burst 1 take at least two intervals.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestEngine_Kinds(t *testing.T) {
	f := newFixture(t, map[string][]string{"a": {}}, nil, echo)
	assert.True(t, f.engine.HasKind(domain.KindLLM))
	assert.False(t, f.engine.HasKind("shell"))
	assert.Equal(t, []string{"llm", "render"}, f.engine.Kinds())
}
