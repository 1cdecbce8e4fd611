package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/cascade/pkg/domain"
)

// Store implements ports.RunStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.RunReport
	mu   sync.RWMutex
}

// NewStore creates a new in-memory run store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.RunReport),
	}
}

// Save keeps a copy of the report.
func (s *Store) Save(ctx context.Context, report *domain.RunReport) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("report has no run id")
	}
	copied := copyReport(report)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[report.RunID] = copied
	return nil
}

// Load returns a copy of the stored report so callers cannot mutate the store.
func (s *Store) Load(ctx context.Context, runID string) (*domain.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return copyReport(report), nil
}

// Delete removes the report.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns the stored run IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func copyReport(r *domain.RunReport) *domain.RunReport {
	out := *r
	out.Entries = append([]string(nil), r.Entries...)
	out.Completed = append([]domain.StepResult(nil), r.Completed...)
	out.Failures = make([]domain.BranchFailure, len(r.Failures))
	for i, f := range r.Failures {
		f.Chain = append([]string(nil), f.Chain...)
		f.Abandoned = append([]string(nil), f.Abandoned...)
		out.Failures[i] = f
	}
	return &out
}
