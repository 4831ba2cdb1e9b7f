package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure ManualService implements the interface.
var _ driving.ManualService = (*ManualService)(nil)

// ManualService manages the registry of ingested manuals.
type ManualService struct {
	store driven.ManualStore
	qa    *QAService
}

// NewManualService creates a new manual service.
func NewManualService(store driven.ManualStore, qa *QAService) *ManualService {
	return &ManualService{store: store, qa: qa}
}

// List returns all registered manuals.
func (s *ManualService) List(ctx context.Context) ([]domain.Manual, error) {
	return s.store.List(ctx)
}

// Get resolves a manual by ID or name.
func (s *ManualService) Get(ctx context.Context, ref string) (*domain.Manual, error) {
	m, err := s.store.Get(ctx, ref)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get manual: %w", err)
	}
	m, err = s.store.GetByName(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get manual %q: %w", ref, err)
	}
	return m, nil
}

// Activate loads the manual's knowledge base and makes it the active manual.
func (s *ManualService) Activate(ctx context.Context, ref string) (*domain.Manual, error) {
	m, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if m.Status != domain.ManualStatusReady {
		return nil, fmt.Errorf("manual %s is %s: %w", m.Name, m.Status, domain.ErrKnowledgeNotFound)
	}
	if err := s.qa.Load(ctx, *m); err != nil {
		return nil, err
	}
	if err := s.store.SetActive(ctx, m.ID); err != nil {
		return nil, fmt.Errorf("set active manual: %w", err)
	}
	return m, nil
}

// Remove unregisters a manual. When purge is true its directory is deleted too.
func (s *ManualService) Remove(ctx context.Context, ref string, purge bool) error {
	m, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}

	if active := s.qa.ActiveManual(); active != nil && active.ID == m.ID {
		s.qa.Deactivate()
		if err := s.store.SetActive(ctx, ""); err != nil {
			return fmt.Errorf("clear active manual: %w", err)
		}
	}
	if err := s.store.Delete(ctx, m.ID); err != nil {
		return fmt.Errorf("delete manual: %w", err)
	}

	if purge && m.Dir != "" {
		if err := os.RemoveAll(m.Dir); err != nil {
			return fmt.Errorf("remove manual directory: %w", err)
		}
		logger.Info("Removed %s", m.Dir)
	}
	return nil
}

// Runs returns the ingest history of a manual.
func (s *ManualService) Runs(ctx context.Context, ref string) ([]domain.IngestRun, error) {
	m, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.store.ListRuns(ctx, m.ID)
}

// ActiveID returns the ID of the active manual without loading it.
func (s *ManualService) ActiveID(ctx context.Context) (string, error) {
	id, err := s.store.Active(ctx)
	if err != nil {
		return "", fmt.Errorf("read active manual: %w", err)
	}
	return id, nil
}

// LoadActive restores the previously active manual, if any. It returns
// nil without error when no manual was active.
func (s *ManualService) LoadActive(ctx context.Context) (*domain.Manual, error) {
	id, err := s.store.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("read active manual: %w", err)
	}
	if id == "" {
		return nil, nil
	}
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get active manual: %w", err)
	}
	if err := s.qa.Load(ctx, *m); err != nil {
		return nil, err
	}
	return m, nil
}
