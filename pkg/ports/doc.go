/*
Package ports defines the driven ports (interfaces) for the Cascade engine.

These interfaces decouple the core traversal from external implementations,
allowing the engine to work with various generation providers, prompt
sources, artifact stores and run-record backends.

# Key Interfaces

  - Generator: Produces the output text of a step (e.g., an OpenAI-compatible API).
  - PromptLoader: Resolves the system instruction and template of a step by name.
  - ArtifactStore: Persists step outputs under a per-artifact location.
  - RunStore: Persists RunReports for later inspection.
  - DistributedLocker: Coordinates writes to the same destination across processes.
*/
package ports
