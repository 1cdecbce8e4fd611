package config_test

import (
	"testing"

	"github.com/aretw0/cascade/internal/config"
	"github.com/aretw0/cascade/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasProvider(names ...string) func(string) bool {
	return func(p string) bool {
		for _, n := range names {
			if n == p {
				return true
			}
		}
		return false
	}
}

func TestResolve_KeyLevelMerge(t *testing.T) {
	defaults := map[string]any{
		"provider":   "echo",
		"model":      "m",
		"max_tokens": 1024,
		"sampling":   map[string]any{"temperature": 0.1, "top_p": 1.0},
	}
	overrides := map[string]map[string]any{
		"brd": {"max_tokens": 4096, "sampling": map[string]any{"temperature": 0.7}},
	}

	r := config.NewResolver(defaults, overrides, config.WithProviders(hasProvider("echo")))

	cfg, err := r.Resolve("brd")
	require.NoError(t, err)
	assert.Equal(t, "brd", cfg.Name)
	assert.Equal(t, "echo", cfg.Provider)
	assert.Equal(t, "m", cfg.Model)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, 0.7, cfg.Sampling.Temperature)
	assert.Equal(t, 1.0, cfg.Sampling.TopP)
	assert.Equal(t, 1, cfg.Sampling.N, "builtin default survives")
	assert.Equal(t, domain.KindLLM, cfg.Kind)

	// Inputs are untouched.
	assert.Equal(t, 0.1, defaults["sampling"].(map[string]any)["temperature"])
}

func TestResolve_StepWithoutOverride(t *testing.T) {
	r := config.NewResolver(map[string]any{"provider": "echo", "model": "m"}, nil)

	cfg, err := r.Resolve("anything")
	require.NoError(t, err)
	assert.Equal(t, "m", cfg.Model)
	assert.False(t, r.Known("anything"))
}

func TestResolve_FlatSamplingKeys(t *testing.T) {
	defaults := map[string]any{"provider": "echo", "model": "m", "temperature": 0.2, "top_p": 0.9}
	overrides := map[string]map[string]any{
		"a": {"temperature": 0.5},
		"b": {"temperature": 0.5, "sampling": map[string]any{"temperature": 0.8}},
	}
	r := config.NewResolver(defaults, overrides)

	a, err := r.Resolve("a")
	require.NoError(t, err)
	assert.Equal(t, 0.5, a.Sampling.Temperature)
	assert.Equal(t, 0.9, a.Sampling.TopP)

	b, err := r.Resolve("b")
	require.NoError(t, err)
	assert.Equal(t, 0.8, b.Sampling.Temperature, "nested form wins over flat form")
}

func TestResolve_ProviderOptionsMerge(t *testing.T) {
	defaults := map[string]any{"provider": "echo", "model": "m", "provider_options": map[string]any{"base_url": "http://a", "org": "x"}}
	overrides := map[string]map[string]any{"s": {"provider_options": map[string]any{"base_url": "http://b"}}}

	cfg, err := config.NewResolver(defaults, overrides).Resolve("s")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"base_url": "http://b", "org": "x"}, cfg.ProviderOptions)
}

func TestResolve_StopAcceptsString(t *testing.T) {
	overrides := map[string]map[string]any{"s": {"stop": "END"}}
	cfg, err := config.NewResolver(map[string]any{"provider": "echo"}, overrides).Resolve("s")
	require.NoError(t, err)
	assert.Equal(t, []string{"END"}, cfg.Stop)
}

func TestResolve_LogitBias(t *testing.T) {
	defaults := map[string]any{"provider": "echo", "model": "m", "logit_bias": map[string]any{"50256": -100}}
	overrides := map[string]map[string]any{"s": {"logit_bias": map[string]any{"1234": 5}}}

	cfg, err := config.NewResolver(defaults, overrides).Resolve("s")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"50256": -100, "1234": 5}, cfg.LogitBias)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name      string
		defaults  map[string]any
		overrides map[string]any
		field     string
	}{
		{"unregistered provider", map[string]any{"provider": "nope"}, nil, "provider"},
		{"empty model", map[string]any{"provider": "echo"}, map[string]any{"model": ""}, "model"},
		{"wrong type", map[string]any{"provider": "echo"}, map[string]any{"max_tokens": "many"}, ""},
		{"bad timeout", map[string]any{"provider": "echo"}, map[string]any{"timeout": "soon"}, "timeout"},
		{"unknown kind", map[string]any{"provider": "echo"}, map[string]any{"kind": "shell"}, "kind"},
		{"misspelled key", map[string]any{"provider": "echo"}, map[string]any{"output_fiel": "x.md"}, "output_fiel"},
		{"misspelled flat sampling key", map[string]any{"provider": "echo"}, map[string]any{"temprature": 0.9}, "temprature"},
		{"misspelled nested key", map[string]any{"provider": "echo"}, map[string]any{"sampling": map[string]any{"top": 0.5}}, "sampling.top"},
		{"misspelled default", map[string]any{"provider": "echo", "max_token": 10}, nil, "max_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := config.NewResolver(tt.defaults, map[string]map[string]any{"s": tt.overrides},
				config.WithProviders(hasProvider("echo")),
				config.WithKinds(func(k domain.StepKind) bool { return k == domain.KindLLM || k == domain.KindRender }),
			)

			_, err := r.Resolve("s")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfig)

			var cfgErr *domain.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "s", cfgErr.Step)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestResolve_RenderSkipsProviderCheck(t *testing.T) {
	overrides := map[string]map[string]any{"fmt": {"kind": "render", "provider": "nope"}}
	r := config.NewResolver(nil, overrides, config.WithProviders(hasProvider("echo")))

	cfg, err := r.Resolve("fmt")
	require.NoError(t, err)
	assert.Equal(t, domain.KindRender, cfg.Kind)
}

func TestResolver_Steps(t *testing.T) {
	r := config.NewResolver(nil, map[string]map[string]any{"b": {}, "a": nil})
	assert.Equal(t, []string{"a", "b"}, r.Steps())
	assert.True(t, r.Known("a"))
}
