package ports

import (
	"context"

	"github.com/aretw0/cascade/pkg/domain"
)

// ArtifactStore persists step outputs.
// Locations are grouped by artifact key so that re-running the same input overwrites prior outputs.
type ArtifactStore interface {
	// Put writes data under (artifactKey, name) and returns the resulting location.
	// Writing the same pair twice replaces the previous content.
	Put(ctx context.Context, artifactKey, name string, data []byte) (string, error)

	// Get reads back the content stored at a location returned by Put.
	Get(ctx context.Context, location string) ([]byte, error)
}

// RunStore defines the interface for persisting run reports.
type RunStore interface {
	// Save persists the report under its RunID.
	Save(ctx context.Context, report *domain.RunReport) error

	// Load retrieves a report by run ID.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunReport, error)

	// Delete removes the report for a given run ID.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of every stored run.
	List(ctx context.Context) ([]string, error)
}
