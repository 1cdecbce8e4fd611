package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/cascade/internal/logging"
	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStepStart(ctx, &domain.StepEvent{Step: "doc"})
	hooks.OnStepComplete(ctx, &domain.StepEvent{Step: "doc", Duration: time.Second})
	hooks.OnStepStart(ctx, &domain.StepEvent{Step: "brd"})
	hooks.OnStepFailed(ctx, &domain.StepEvent{Step: "brd"})
	hooks.OnGenerate(ctx, &domain.GenerateEvent{
		Provider: "openai",
		Model:    "gpt-4",
		Usage:    domain.Usage{PromptTokens: 10, CompletionTokens: 5},
		Duration: 2 * time.Second,
	})
	hooks.OnRunFinish(ctx, &domain.RunReport{
		Entries:   []string{"doc"},
		Completed: []domain.StepResult{{Step: "doc"}},
		Failures:  []domain.BranchFailure{{Step: "brd"}},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepsTotal.WithLabelValues("doc", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepsTotal.WithLabelValues("brd", "failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSteps))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.TokensTotal.WithLabelValues("openai", "prompt")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.TokensTotal.WithLabelValues("openai", "completion")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("partial")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.GenerationDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnStepComplete(context.Background(), &domain.StepEvent{Step: "doc"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `cascade_steps_total{status="completed",step="doc"} 1`)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithFormat(&buf, logging.FormatText, slog.LevelDebug)
	hooks := observability.LoggingHooks(logger)
	ctx := context.Background()

	hooks.OnStepFailed(ctx, &domain.StepEvent{Step: "brd", Stage: domain.StageGenerated, Err: errors.New("boom")})
	hooks.OnRunFinish(ctx, &domain.RunReport{RunID: "r1"})

	out := buf.String()
	assert.Contains(t, out, "step_failed")
	assert.Contains(t, out, "err=boom")
	assert.Contains(t, out, "run_finish")
	assert.Contains(t, out, "status=succeeded")
}
