package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/cascade/pkg/domain"
)

// LoggingHooks logs every lifecycle event as a structured record.
// Step transitions log at debug; failures and run summaries at warn and info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_start",
				"run_id", e.RunID,
				"artifact", e.Artifact,
				"step", e.Step,
				"chain", e.Chain,
			)
		},
		OnStepComplete: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_complete",
				"run_id", e.RunID,
				"artifact", e.Artifact,
				"step", e.Step,
				"duration", e.Duration,
			)
		},
		OnStepFailed: func(ctx context.Context, e *domain.StepEvent) {
			logger.WarnContext(ctx, "step_failed",
				"run_id", e.RunID,
				"artifact", e.Artifact,
				"step", e.Step,
				"stage", e.Stage,
				"error", e.Err,
			)
		},
		OnGenerate: func(ctx context.Context, e *domain.GenerateEvent) {
			logger.DebugContext(ctx, "generate",
				"step", e.Step,
				"provider", e.Provider,
				"model", e.Model,
				"prompt_tokens", e.Usage.PromptTokens,
				"completion_tokens", e.Usage.CompletionTokens,
				"is_error", e.IsError,
			)
		},
		OnRunFinish: func(ctx context.Context, r *domain.RunReport) {
			logger.InfoContext(ctx, "run_finish",
				"run_id", r.RunID,
				"artifact", r.Artifact,
				"status", r.Status(),
				"completed", len(r.Completed),
				"failed", len(r.Failures),
				"duration", r.Duration(),
			)
		},
	}
}
