/*
Package domain contains the core domain models for the Cascade pipeline engine.

It defines the entities shared by every layer: the resolved configuration of a
step, the prompt handed to a generation provider, the per-artifact RunContext
and the RunReport produced by a traversal. This package is kept pure and free
of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - StepConfig: The merged, typed configuration of one step (provider, model, sampling, naming).
  - PromptAssembly: The system text, ancestor context messages and rendered instruction for one invocation.
  - RunContext: The outputs of completed steps for a single input artifact.
  - RunReport: The outcome of one artifact's traversal (completed steps and failed branches).
*/
package domain
