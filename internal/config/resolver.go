package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/cascade/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Built-in step defaults, applied beneath default_agent_config.
var builtinDefaults = map[string]any{
	"kind":       string(domain.KindLLM),
	"provider":   "openai",
	"model":      "gpt-4",
	"max_tokens": 1024,
	"sampling": map[string]any{
		"temperature": 0.1,
		"top_p":       1.0,
		"n":           1,
	},
}

// Flat keys accepted for backwards compatibility and moved into "sampling".
var samplingKeys = []string{"temperature", "top_p", "n"}

// Resolver merges global defaults with per-step overrides.
// It never mutates its inputs and is safe for concurrent use.
type Resolver struct {
	base      map[string]any
	overrides map[string]map[string]any
	providers func(string) bool
	kinds     func(domain.StepKind) bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProviders sets the provider availability check used for llm steps.
func WithProviders(has func(string) bool) Option {
	return func(r *Resolver) {
		r.providers = has
	}
}

// WithKinds sets the step kind availability check.
func WithKinds(has func(domain.StepKind) bool) Option {
	return func(r *Resolver) {
		r.kinds = has
	}
}

// NewResolver creates a Resolver over defaults (default_agent_config) and per-step overrides.
func NewResolver(defaults map[string]any, overrides map[string]map[string]any, opts ...Option) *Resolver {
	r := &Resolver{
		base:      merge(normalize(builtinDefaults), normalize(defaults)),
		overrides: make(map[string]map[string]any, len(overrides)),
	}
	for name, o := range overrides {
		r.overrides[name] = normalize(o)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Known reports whether the step has an override entry.
func (r *Resolver) Known(step string) bool {
	_, ok := r.overrides[step]
	return ok
}

// Steps returns the names of the steps with override entries, sorted.
func (r *Resolver) Steps() []string {
	names := make([]string, 0, len(r.overrides))
	for name := range r.overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the effective configuration of a step.
// Override keys win; nested maps are merged key by key.
func (r *Resolver) Resolve(step string) (domain.StepConfig, error) {
	merged := merge(r.base, r.overrides[step])

	var cfg domain.StepConfig
	md, err := decodeMeta(merged, &cfg)
	if err != nil {
		return domain.StepConfig{}, &domain.ConfigError{Step: step, Err: err}
	}
	if len(md.Unused) > 0 {
		return domain.StepConfig{}, &domain.ConfigError{Step: step, Field: md.Unused[0], Err: fmt.Errorf("unknown key(s): %s", strings.Join(md.Unused, ", "))}
	}
	cfg.Name = step

	if cfg.Kind == "" {
		cfg.Kind = domain.KindLLM
	}
	if r.kinds != nil && !r.kinds(cfg.Kind) {
		return domain.StepConfig{}, &domain.ConfigError{Step: step, Field: "kind", Err: fmt.Errorf("unknown step kind %q", cfg.Kind)}
	}
	if cfg.Kind == domain.KindLLM {
		if cfg.Model == "" {
			return domain.StepConfig{}, &domain.ConfigError{Step: step, Field: "model", Err: fmt.Errorf("model is empty")}
		}
		if r.providers != nil && !r.providers(cfg.Provider) {
			return domain.StepConfig{}, &domain.ConfigError{Step: step, Field: "provider", Err: fmt.Errorf("no generation adapter registered for provider %q", cfg.Provider)}
		}
	}
	if cfg.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Timeout); err != nil {
			return domain.StepConfig{}, &domain.ConfigError{Step: step, Field: "timeout", Err: err}
		}
	}

	return cfg, nil
}

// merge returns a new map holding base overlaid with over.
// Maps present on both sides are merged recursively; any other value in over wins.
func merge(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = clone(v)
	}
	for k, v := range over {
		if bm, ok := out[k].(map[string]any); ok {
			if om, ok := v.(map[string]any); ok {
				out[k] = merge(bm, om)
				continue
			}
		}
		out[k] = clone(v)
	}
	return out
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return merge(nil, t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = clone(e)
		}
		return out
	default:
		return v
	}
}

// normalize moves flat sampling keys into the "sampling" map of the same layer.
// A key already present under "sampling" wins over its flat form.
func normalize(layer map[string]any) map[string]any {
	out := merge(nil, layer)
	var sampling map[string]any
	for _, key := range samplingKeys {
		v, ok := out[key]
		if !ok {
			continue
		}
		delete(out, key)
		if sampling == nil {
			sampling = map[string]any{}
		}
		sampling[key] = v
	}
	if sampling == nil {
		return out
	}
	if nested, ok := out["sampling"].(map[string]any); ok {
		out["sampling"] = merge(sampling, nested)
	} else {
		out["sampling"] = sampling
	}
	return out
}

// liftStringToSlice lets a single string stand for a one-element list (e.g. "stop": "END").
func liftStringToSlice(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to == reflect.TypeOf([]string(nil)) {
		return []string{reflect.ValueOf(data).String()}, nil
	}
	return data, nil
}

var _ mapstructure.DecodeHookFuncType = liftStringToSlice
