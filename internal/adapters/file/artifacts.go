package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore implements ports.ArtifactStore on the local filesystem.
// Outputs live in <Root>/<artifact key>/<name>; re-running an artifact overwrites them.
type ArtifactStore struct {
	Root string
}

// NewArtifactStore creates an ArtifactStore rooted at root.
// If root is empty, it defaults to "output".
func NewArtifactStore(root string) *ArtifactStore {
	if root == "" {
		root = "output"
	}
	return &ArtifactStore{Root: root}
}

// Put writes data atomically and returns the file path.
func (s *ArtifactStore) Put(ctx context.Context, artifactKey, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !filepath.IsLocal(artifactKey) {
		return "", fmt.Errorf("invalid artifact key %q", artifactKey)
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("invalid output name %q", name)
	}

	dir := filepath.Join(s.Root, artifactKey, filepath.Dir(name))
	return writeAtomic(dir, filepath.Base(name), data)
}

// Get reads the file at loc.
func (s *ArtifactStore) Get(ctx context.Context, loc string) ([]byte, error) {
	data, err := os.ReadFile(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}
