/*
Package cascade runs a directed acyclic pipeline of named generation steps over input artifacts.

Each step consumes the triggering input plus the outputs of its upstream
steps, asks a generation provider for a new text, persists it and triggers
its downstream steps. A failing step abandons only its own descendants;
sibling branches keep running.

# Concept

A flow maps each step to its ordered downstream steps:

	doc:  [brd]
	brd:  [specs]

Steps with no upstream step are entries and are triggered by the input file.
Prompt templates reference earlier outputs with {{step_name}} markers and the
triggering input with {{input_content}}. Outputs of one input share a
RunContext that is discarded when the traversal ends.

# Usage

	prompts, err := loam.Open("prompts") // doc.md, brd.md
	if err != nil {
		log.Fatal(err)
	}

	eng, err := cascade.New(
		cascade.WithFlow(map[string][]string{"doc": {"brd"}}),
		cascade.WithDefaults(map[string]any{"provider": "echo", "model": "none"}),
		cascade.WithGenerator(echo.Name, echo.New()),
		cascade.WithPrompts(prompts),
	)
	if err != nil {
		log.Fatal(err)
	}

	report, err := eng.RunArtifact(ctx, "repository/main.py")
	if err != nil {
		log.Fatal(err)
	}
	for _, f := range report.Failures {
		log.Printf("branch %v failed: %s", f.Branch(), f.Message)
	}

Configuration errors in the flow (cycles, unknown steps, the reserved
input_content name) are reported by New. Everything else is recorded per
branch in the domain.RunReport.

# Steps

Every step has a kind. "llm" (the default) calls the provider named by its
configuration; "render" writes the rendered instruction itself. Custom kinds
implement ports.StepKind and register with WithStepKind.

# Concurrency

Inputs are independent; RunAll runs several at once. Within one input,
WithMaxParallel lets sibling branches run concurrently and WithRateLimit
throttles provider calls, either process-wide or per entry branch.
*/
package cascade
