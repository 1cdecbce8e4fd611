package memory

import (
	"context"
	"fmt"
	"path"
	"sync"
)

// ArtifactStore implements ports.ArtifactStore in memory.
// Locations have the form "<artifactKey>/<name>".
type ArtifactStore struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewArtifactStore creates an empty in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{
		data: make(map[string][]byte),
	}
}

// Put stores a copy of data, replacing any previous content at the same location.
func (s *ArtifactStore) Put(ctx context.Context, artifactKey, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	loc := path.Join(artifactKey, name)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[loc] = append([]byte(nil), data...)
	return loc, nil
}

// Get returns a copy of the content at loc.
func (s *ArtifactStore) Get(ctx context.Context, loc string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[loc]
	if !ok {
		return nil, fmt.Errorf("artifact not found: %s", loc)
	}
	return append([]byte(nil), data...), nil
}

// Locations returns every stored location. Order is unspecified.
func (s *ArtifactStore) Locations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locs := make([]string, 0, len(s.data))
	for loc := range s.data {
		locs = append(locs, loc)
	}
	return locs
}
