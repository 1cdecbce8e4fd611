package domain

import (
	"fmt"
	"sync"
)

// RunContext maps step names to their output text for a single input artifact.
// Entries are inserted once, after the step completes, and never overwritten.
// It is safe for concurrent use.
type RunContext struct {
	artifact string

	mu      sync.RWMutex
	outputs map[string]string
	order   []string
}

// NewRunContext creates an empty context scoped to the given artifact.
func NewRunContext(artifact string) *RunContext {
	return &RunContext{
		artifact: artifact,
		outputs:  make(map[string]string),
	}
}

// Artifact returns the input artifact this context belongs to.
func (c *RunContext) Artifact() string {
	return c.artifact
}

// Put records the output of a completed step.
// Writing the same step twice returns ErrDuplicateOutput.
func (c *RunContext) Put(step, output string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.outputs[step]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOutput, step)
	}
	c.outputs[step] = output
	c.order = append(c.order, step)
	return nil
}

// Get returns the output of a step, if recorded.
func (c *RunContext) Get(step string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out, ok := c.outputs[step]
	return out, ok
}

// Has reports whether a step output is recorded.
func (c *RunContext) Has(step string) bool {
	_, ok := c.Get(step)
	return ok
}

// Steps returns the recorded step names in insertion order.
func (c *RunContext) Steps() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Snapshot returns a copy of all recorded outputs.
func (c *RunContext) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := make(map[string]string, len(c.outputs))
	for k, v := range c.outputs {
		snap[k] = v
	}
	return snap
}

// Len returns the number of recorded outputs.
func (c *RunContext) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.outputs)
}
