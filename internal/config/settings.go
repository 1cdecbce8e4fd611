package config

import (
	"fmt"

	"github.com/aretw0/cascade/pkg/domain"
)

// Run setting defaults.
const (
	DefaultRepositoryFolder = "repository"
	DefaultOutputFolder     = "output"
	DefaultPromptsFolder    = "prompts"
)

// Settings are the run-level settings carried by default_config.
type Settings struct {
	RepositoryFolder string           `mapstructure:"repository_folder"`
	OutputFolder     string           `mapstructure:"output_folder"`
	PromptsFolder    string           `mapstructure:"prompts_folder"`
	Entry            []string         `mapstructure:"entry"`
	MaxParallelSteps int              `mapstructure:"max_parallel_steps"`
	RateLimit        domain.RateLimit `mapstructure:"rate_limit"`
}

func (s Settings) withDefaults() Settings {
	if s.RepositoryFolder == "" {
		s.RepositoryFolder = DefaultRepositoryFolder
	}
	if s.OutputFolder == "" {
		s.OutputFolder = DefaultOutputFolder
	}
	if s.PromptsFolder == "" {
		s.PromptsFolder = DefaultPromptsFolder
	}
	if s.MaxParallelSteps == 0 {
		s.MaxParallelSteps = 1
	}
	if s.RateLimit.Policy == "" {
		s.RateLimit.Policy = domain.RateNone
	}
	return s
}

// Validate checks the settings values.
func (s Settings) Validate() error {
	if s.MaxParallelSteps < 0 {
		return fmt.Errorf("max_parallel_steps must not be negative")
	}
	for _, e := range s.Entry {
		if e == domain.InputContentKey {
			return fmt.Errorf("entry: %q is reserved", e)
		}
	}
	return s.RateLimit.Validate()
}
