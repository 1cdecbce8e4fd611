package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/cascade"
	"github.com/aretw0/cascade/internal/adapters/file"
	"github.com/aretw0/cascade/pkg/adapters/echo"
	"github.com/aretw0/cascade/pkg/adapters/openai"
	"github.com/aretw0/cascade/pkg/adapters/process"
	"github.com/aretw0/cascade/pkg/adapters/redis"
	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/observability"
	"github.com/aretw0/cascade/pkg/ports"
)

// Stack is an engine wired to the adapters selected by a project and its flags.
type Stack struct {
	Project *Project
	Engine  *cascade.Engine
	Metrics *observability.Metrics
	Runs    ports.RunStore
	Logger  *slog.Logger

	closers []func() error
}

// NewStack loads the project in opts.Dir and builds its engine.
func NewStack(opts Options, logger *slog.Logger, extra ...cascade.Option) (*Stack, error) {
	project, err := LoadProject(opts.Dir)
	if err != nil {
		return nil, err
	}

	prompts, err := project.PromptLoader()
	if err != nil {
		return nil, err
	}

	s := &Stack{
		Project: project,
		Metrics: observability.NewMetrics(),
		Logger:  logger,
	}

	settings := project.Files.Settings
	engineOpts := []cascade.Option{
		cascade.WithFlow(project.Files.Flow),
		cascade.WithDefaults(project.Files.Defaults),
		cascade.WithOverrides(project.Files.Overrides),
		cascade.WithPrompts(prompts),
		cascade.WithArtifacts(file.NewArtifactStore(project.Output)),
		cascade.WithLogger(logger),
		cascade.WithLifecycleHooks(observability.LoggingHooks(logger)),
		cascade.WithLifecycleHooks(s.Metrics.Hooks()),
		cascade.WithMaxParallel(settings.MaxParallelSteps),
		cascade.WithRateLimit(settings.RateLimit),
	}
	if len(settings.Entry) > 0 {
		engineOpts = append(engineOpts, cascade.WithEntries(settings.Entry...))
	}

	if opts.RedisAddr != "" {
		store := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
		s.Runs = store
		s.closers = append(s.closers, store.Close)
		engineOpts = append(engineOpts, cascade.WithLocker(redis.NewLocker(store.Client(), redis.DefaultPrefix)))
		logger.Debug("Using Redis run store", "addr", opts.RedisAddr)
	} else {
		s.Runs = file.NewRunStore(filepath.Join(project.Dir, RunsDir))
	}
	engineOpts = append(engineOpts, cascade.WithRunStore(s.Runs))

	gens, err := generators(logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	commands, err := project.CommandProviders()
	if err != nil {
		_ = s.Close()
		return nil, &domain.ConfigError{Err: err}
	}
	for name, c := range commands {
		gens[name] = process.New(c, process.WithBaseDir(project.Dir))
		logger.Debug("Registered command provider", "provider", name, "command", c.Command)
	}
	for name, g := range gens {
		engineOpts = append(engineOpts, cascade.WithGenerator(name, g))
	}

	engineOpts = append(engineOpts, extra...)
	s.Engine, err = cascade.New(engineOpts...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connections opened by the stack.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// generators registers echo and every hosted provider with an API key in the environment.
// Command providers declared in the project take precedence over both.
func generators(logger *slog.Logger) (map[string]ports.Generator, error) {
	gens := map[string]ports.Generator{echo.Name: echo.New()}

	hosted := []func(...openai.Option) (*openai.Client, error){openai.NewOpenAI, openai.NewGemini}
	for _, newClient := range hosted {
		c, err := newClient(openai.WithLogger(logger))
		if errors.Is(err, openai.ErrMissingAPIKey) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("provider setup: %w", err)
		}
		gens[c.Name()] = c
	}
	return gens, nil
}
