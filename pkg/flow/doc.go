/*
Package flow holds the declared pipeline graph: an ordered list of downstream
steps per step.

A Graph is immutable once constructed. Validate must be called before a
traversal: it rejects references to steps that cannot be run
(domain.UnknownStepError) and directed cycles (domain.CycleError), so that
structural defects are reported at load time and never during execution.
*/
package flow
