package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepStart    EventType = "step_start"
	EventStepComplete EventType = "step_complete"
	EventStepFailed   EventType = "step_failed"
	EventGenerate     EventType = "generate"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// StepEvent represents a transition in the lifecycle of a step invocation.
type StepEvent struct {
	EventBase
	Artifact string        `json:"artifact"`
	Step     string        `json:"step"`
	Stage    Stage         `json:"stage"`
	Chain    []string      `json:"chain,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// GenerateEvent represents a finished call to a generation provider.
type GenerateEvent struct {
	EventBase
	Step     string        `json:"step"`
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Usage    Usage         `json:"usage"`
	Duration time.Duration `json:"duration"`
	IsError  bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStepStart    func(context.Context, *StepEvent)
	OnStepComplete func(context.Context, *StepEvent)
	OnStepFailed   func(context.Context, *StepEvent)
	OnGenerate     func(context.Context, *GenerateEvent)
	OnRunFinish    func(context.Context, *RunReport)
}

// Merge returns hooks that invoke h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepStart:    chain(h.OnStepStart, other.OnStepStart),
		OnStepComplete: chain(h.OnStepComplete, other.OnStepComplete),
		OnStepFailed:   chain(h.OnStepFailed, other.OnStepFailed),
		OnGenerate:     chain(h.OnGenerate, other.OnGenerate),
		OnRunFinish:    chain(h.OnRunFinish, other.OnRunFinish),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
