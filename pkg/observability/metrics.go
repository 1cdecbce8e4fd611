package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/cascade/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cascade"

// Metrics holds the Prometheus collectors fed by engine hooks.
// Each instance owns its registry, so several engines can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	StepsTotal         *prometheus.CounterVec
	StepDuration       *prometheus.HistogramVec
	GenerationDuration *prometheus.HistogramVec
	TokensTotal        *prometheus.CounterVec
	RunsTotal          *prometheus.CounterVec
	ActiveSteps        prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		StepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Step invocations by outcome.",
		}, []string{"step", "status"}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of completed step invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		GenerationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of generation provider calls.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"provider", "model"}),
		TokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens reported by generation providers.",
		}, []string{"provider", "type"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Artifact runs by status.",
		}, []string{"status"}),
		ActiveSteps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_steps",
			Help:      "Step invocations currently in flight.",
		}),
	}

	m.registry.MustRegister(
		m.StepsTotal,
		m.StepDuration,
		m.GenerationDuration,
		m.TokensTotal,
		m.RunsTotal,
		m.ActiveSteps,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepStart: func(_ context.Context, _ *domain.StepEvent) {
			m.ActiveSteps.Inc()
		},
		OnStepComplete: func(_ context.Context, e *domain.StepEvent) {
			m.ActiveSteps.Dec()
			m.StepsTotal.WithLabelValues(e.Step, "completed").Inc()
			m.StepDuration.WithLabelValues(e.Step).Observe(e.Duration.Seconds())
		},
		OnStepFailed: func(_ context.Context, e *domain.StepEvent) {
			m.ActiveSteps.Dec()
			m.StepsTotal.WithLabelValues(e.Step, "failed").Inc()
		},
		OnGenerate: func(_ context.Context, e *domain.GenerateEvent) {
			m.GenerationDuration.WithLabelValues(e.Provider, e.Model).Observe(e.Duration.Seconds())
			m.TokensTotal.WithLabelValues(e.Provider, "prompt").Add(float64(e.Usage.PromptTokens))
			m.TokensTotal.WithLabelValues(e.Provider, "completion").Add(float64(e.Usage.CompletionTokens))
		},
		OnRunFinish: func(_ context.Context, r *domain.RunReport) {
			m.RunsTotal.WithLabelValues(string(r.Status())).Inc()
		},
	}
}
