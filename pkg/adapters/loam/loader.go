package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository to the ports.PromptLoader interface.
// Each step is a document such as doc.md:
//
//	---
//	system: You document source code.
//	---
//	Document this file:
//	{{input_content}}
type Loader struct {
	Repo *loam.TypedRepository[PromptMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[PromptMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only, strict Loam repository at path and wraps it.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode keeps numeric frontmatter consistent across formats; the
	// engine never writes prompts, so the repository is opened read-only.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[PromptMetadata](repo)), nil
}

// LoadPrompt retrieves the prompt document of a step.
// Loam resolves "doc" to doc.md; the body is trimmed of surrounding whitespace.
func (l *Loader) LoadPrompt(ctx context.Context, name string) (domain.PromptResource, error) {
	doc, err := l.Repo.Get(ctx, name)
	if err != nil {
		names, listErr := l.ListPrompts(ctx)
		if listErr == nil && !contains(names, name) {
			return domain.PromptResource{}, fmt.Errorf("%w: %s", domain.ErrPromptNotFound, name)
		}
		return domain.PromptResource{}, fmt.Errorf("loam get failed for %s: %w", name, err)
	}

	tpl := doc.Data.Template
	if tpl == "" {
		tpl = strings.TrimSpace(doc.Content)
	}
	if doc.Data.System == "" && tpl == "" {
		return domain.PromptResource{}, fmt.Errorf("%w: %s (empty document)", domain.ErrPromptNotFound, name)
	}

	return domain.PromptResource{
		Name:     name,
		System:   doc.Data.System,
		Template: tpl,
	}, nil
}

// ListPrompts lists the prompt documents in the repository, sorted.
func (l *Loader) ListPrompts(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: prompt '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

func contains(names []string, name string) bool {
	i := sort.SearchStrings(names, name)
	return i < len(names) && names[i] == name
}
