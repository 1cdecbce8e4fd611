package domain

import (
	"slices"
	"time"
)

// Stage is the lifecycle position of a step invocation.
type Stage string

const (
	StagePending         Stage = "pending"
	StageConfigResolved  Stage = "config_resolved"
	StagePromptAssembled Stage = "prompt_assembled"
	StageGenerated       Stage = "generated"
	StagePersisted       Stage = "persisted"
	StagePropagated      Stage = "propagated"
	StageFailed          Stage = "failed"
)

// RunStatus summarises a RunReport.
type RunStatus string

const (
	// RunSucceeded means no branch failed.
	RunSucceeded RunStatus = "succeeded"
	// RunPartial means at least one branch failed but some entry step produced output.
	RunPartial RunStatus = "partial"
	// RunFailed means every entry step failed before producing any output.
	RunFailed RunStatus = "failed"
)

// StepResult records a completed step invocation.
type StepResult struct {
	Step       string        `json:"step"`
	InputPath  string        `json:"input_path"`
	OutputPath string        `json:"output_path"`
	Chain      []string      `json:"chain,omitempty"`
	Usage      Usage         `json:"usage"`
	Duration   time.Duration `json:"duration"`
}

// BranchFailure records a step that failed together with the downstream steps it abandoned.
type BranchFailure struct {
	Artifact string `json:"artifact"`
	Step     string `json:"step"`
	// Stage is the last stage reached before the failure.
	Stage     Stage    `json:"stage"`
	Chain     []string `json:"chain,omitempty"`
	Abandoned []string `json:"abandoned,omitempty"`
	Message   string   `json:"error"`

	Err error `json:"-"`
}

// Branch returns the failed step followed by its abandoned descendants.
func (f BranchFailure) Branch() []string {
	return append([]string{f.Step}, f.Abandoned...)
}

// RunReport is the outcome of one artifact traversal.
type RunReport struct {
	RunID      string          `json:"run_id"`
	Artifact   string          `json:"artifact"`
	Entries    []string        `json:"entries"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Completed  []StepResult    `json:"completed"`
	Failures   []BranchFailure `json:"failures,omitempty"`
}

// Succeeded reports whether the given step completed.
func (r *RunReport) Succeeded(step string) bool {
	return slices.ContainsFunc(r.Completed, func(res StepResult) bool {
		return res.Step == step
	})
}

// FailedSteps returns the names of the steps that failed, in recorded order.
func (r *RunReport) FailedSteps() []string {
	names := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		names = append(names, f.Step)
	}
	return names
}

// Status derives the overall outcome of the run.
func (r *RunReport) Status() RunStatus {
	if len(r.Failures) == 0 {
		return RunSucceeded
	}
	for _, entry := range r.Entries {
		if r.Succeeded(entry) {
			return RunPartial
		}
	}
	return RunFailed
}

// Duration returns the wall-clock time of the traversal.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
