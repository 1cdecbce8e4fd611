package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/ports"
)

// Registry manages the available generation providers, keyed by provider name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ports.Generator
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]ports.Generator),
	}
}

// Register adds a provider to the registry.
// If a provider with the same name exists, it is overwritten.
func (r *Registry) Register(name string, g ports.Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = g
}

// Has reports whether a provider is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name string) (ports.Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.providers[name]
	return g, ok
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate routes the request to the provider named by req.Config.Provider.
// Returns an error if the provider is not found.
func (r *Registry) Generate(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
	g, ok := r.Lookup(req.Config.Provider)
	if !ok {
		return domain.Generation{}, fmt.Errorf("provider not found: %s", req.Config.Provider)
	}
	return g.Generate(ctx, req)
}
