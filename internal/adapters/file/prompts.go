package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/aretw0/cascade/pkg/domain"
)

// Prompt resource file names inside a step directory.
const (
	SystemFile   = "system.txt"
	TemplateFile = "user_template.txt"
)

// PromptDir implements ports.PromptLoader over a directory layout:
//
//	<Root>/<step>/system.txt
//	<Root>/<step>/user_template.txt
type PromptDir struct {
	Root string
}

// NewPromptDir creates a PromptDir rooted at root.
func NewPromptDir(root string) *PromptDir {
	return &PromptDir{Root: root}
}

// LoadPrompt reads the system text and template of a step.
// Either file may be missing; if both are, it returns domain.ErrPromptNotFound.
func (p *PromptDir) LoadPrompt(ctx context.Context, name string) (domain.PromptResource, error) {
	if !filepath.IsLocal(name) {
		return domain.PromptResource{}, fmt.Errorf("invalid prompt name %q", name)
	}
	dir := filepath.Join(p.Root, name)

	system, hasSystem, err := readOptional(filepath.Join(dir, SystemFile))
	if err != nil {
		return domain.PromptResource{}, err
	}
	tpl, hasTemplate, err := readOptional(filepath.Join(dir, TemplateFile))
	if err != nil {
		return domain.PromptResource{}, err
	}
	if !hasSystem && !hasTemplate {
		return domain.PromptResource{}, fmt.Errorf("%w: %s", domain.ErrPromptNotFound, name)
	}

	return domain.PromptResource{Name: name, System: system, Template: tpl}, nil
}

// ListPrompts returns the step directories under Root, sorted.
func (p *PromptDir) ListPrompts(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func readOptional(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), true, nil
}
