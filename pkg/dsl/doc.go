/*
Package dsl provides a Go DSL for declaring Cascade pipelines in code.

It is the programmatic counterpart of the flow.json, agent_config.json and
prompts/ directory trio: the builder collects the graph edges, the per-step
overrides and the prompt resources, and Build validates them together.

Example usage:

	b := dsl.New()

	b.Step("doc").
		System("You document source code.").
		Template("Document this file:\n{{input_content}}").
		Then("brd")

	b.Step("brd").
		Template("Write a BRD from:\n{{doc}}").
		Set("model", "gpt-4o").
		Then("specs")

	b.Step("specs").OutputFile("specs.md")

	pipeline, err := b.Build()
	// pipeline.Graph, pipeline.Overrides and pipeline.Prompts feed cascade.New.
*/
package dsl
