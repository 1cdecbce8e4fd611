package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/cascade/internal/adapters/file"
	"github.com/aretw0/cascade/internal/config"
	"github.com/aretw0/cascade/pkg/adapters/loam"
	"github.com/aretw0/cascade/pkg/adapters/process"
	"github.com/aretw0/cascade/pkg/ports"
)

// RunsDir is where run reports are kept when Redis is not configured,
// relative to the project directory.
var RunsDir = filepath.Join(".cascade", "runs")

// Project is a loaded configuration directory with its folders resolved.
// Relative folders in default_config are taken from the project directory.
type Project struct {
	Dir        string
	Files      *config.Files
	Repository string
	Output     string
	Prompts    string
}

// LoadProject reads the configuration sources in dir.
func LoadProject(dir string) (*Project, error) {
	if dir == "" {
		dir = "."
	}
	files, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	return &Project{
		Dir:        dir,
		Files:      files,
		Repository: resolvePath(dir, files.Settings.RepositoryFolder),
		Output:     resolvePath(dir, files.Settings.OutputFolder),
		Prompts:    resolvePath(dir, files.Settings.PromptsFolder),
	}, nil
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// ProvidersFile is the optional declaration of command providers.
const ProvidersFile = "providers"

// CommandProviders reads providers.{json,yaml,yml} in the project directory.
func (p *Project) CommandProviders() (map[string]process.Command, error) {
	for _, ext := range config.Extensions {
		path := filepath.Join(p.Dir, ProvidersFile+ext)
		if _, err := os.Stat(path); err == nil {
			return process.LoadCommands(path)
		}
	}
	return map[string]process.Command{}, nil
}

// Inputs returns the artifacts to run: args when given, otherwise every file
// in the repository folder.
func (p *Project) Inputs(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	return file.Scan(p.Repository)
}

// PromptLoader picks the prompt backend of the prompts folder.
// A folder holding markdown documents is read through Loam; otherwise the
// <step>/system.txt and <step>/user_template.txt layout applies.
func (p *Project) PromptLoader() (ports.PromptLoader, error) {
	if hasMarkdown(p.Prompts) {
		l, err := loam.Open(p.Prompts)
		if err != nil {
			return nil, fmt.Errorf("prompts folder: %w", err)
		}
		return l, nil
	}
	return file.NewPromptDir(p.Prompts), nil
}

func hasMarkdown(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			return true
		}
	}
	return false
}
