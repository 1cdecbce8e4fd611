package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/cascade/pkg/domain"
)

// Loader implements ports.PromptLoader using an in-memory map.
// It is the backing store of the Go DSL and of most tests.
type Loader struct {
	mu      sync.RWMutex
	prompts map[string]domain.PromptResource
}

// NewLoader creates a Loader seeded with the given resources, keyed by step name.
func NewLoader(prompts map[string]domain.PromptResource) *Loader {
	l := &Loader{prompts: make(map[string]domain.PromptResource, len(prompts))}
	for name, p := range prompts {
		p.Name = name
		l.prompts[name] = p
	}
	return l
}

// Set adds or replaces the resources of a step.
func (l *Loader) Set(name string, p domain.PromptResource) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p.Name = name
	l.prompts[name] = p
}

// LoadPrompt returns the resources of a step.
func (l *Loader) LoadPrompt(ctx context.Context, name string) (domain.PromptResource, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.prompts[name]
	if !ok {
		return domain.PromptResource{}, fmt.Errorf("%w: %s", domain.ErrPromptNotFound, name)
	}
	return p, nil
}

// ListPrompts returns all resource names, sorted.
func (l *Loader) ListPrompts(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.prompts))
	for k := range l.prompts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
