package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure ManualStore implements the interface.
var _ driven.ManualStore = (*ManualStore)(nil)

// ManualStore is an in-memory implementation of driven.ManualStore.
type ManualStore struct {
	mu      sync.RWMutex
	manuals map[string]domain.Manual
	runs    map[string]domain.IngestRun
	active  string
}

// NewManualStore creates a new in-memory manual store.
func NewManualStore() *ManualStore {
	return &ManualStore{
		manuals: make(map[string]domain.Manual),
		runs:    make(map[string]domain.IngestRun),
	}
}

// Save stores or updates a manual.
func (s *ManualStore) Save(_ context.Context, manual domain.Manual) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.manuals {
		if m.Name == manual.Name && id != manual.ID {
			return domain.ErrAlreadyExists
		}
	}
	s.manuals[manual.ID] = manual
	return nil
}

// Get retrieves a manual by ID.
func (s *ManualStore) Get(_ context.Context, id string) (*domain.Manual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.manuals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

// GetByName retrieves a manual by name.
func (s *ManualStore) GetByName(_ context.Context, name string) (*domain.Manual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.manuals {
		if m.Name == name {
			return &m, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns all manuals, most recently updated first.
func (s *ManualStore) List(_ context.Context) ([]domain.Manual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Manual, 0, len(s.manuals))
	for _, m := range s.manuals {
		result = append(result, m)
	}
	slices.SortFunc(result, func(a, b domain.Manual) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return result, nil
}

// Delete removes a manual and its runs.
func (s *ManualStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.manuals, id)
	for runID, r := range s.runs {
		if r.ManualID == id {
			delete(s.runs, runID)
		}
	}
	if s.active == id {
		s.active = ""
	}
	return nil
}

// SetActive records the manual used for answering.
func (s *ManualStore) SetActive(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = id
	return nil
}

// Active returns the active manual ID.
func (s *ManualStore) Active(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, nil
}

// SaveRun stores or updates an ingest run.
func (s *ManualStore) SaveRun(_ context.Context, run domain.IngestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

// ListRuns returns the runs of a manual, newest first.
func (s *ManualStore) ListRuns(_ context.Context, manualID string) ([]domain.IngestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.IngestRun
	for _, r := range s.runs {
		if r.ManualID == manualID {
			result = append(result, r)
		}
	}
	slices.SortFunc(result, func(a, b domain.IngestRun) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return result, nil
}
