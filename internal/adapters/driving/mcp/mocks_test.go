package mcp

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// mockQAService is a mock implementation of driving.QAService.
type mockQAService struct {
	answer    *domain.Answer
	hits      []domain.SearchHit
	active    *domain.Manual
	err       error
	lastTopK  int
	lastQuery string
}

func (m *mockQAService) Ask(_ context.Context, question string) (*domain.Answer, error) {
	m.lastQuery = question
	return m.answer, m.err
}

func (m *mockQAService) Search(_ context.Context, query string, topK int) ([]domain.SearchHit, error) {
	m.lastQuery = query
	m.lastTopK = topK
	return m.hits, m.err
}

func (m *mockQAService) ActiveManual() *domain.Manual {
	return m.active
}

// mockManualService is a mock implementation of driving.ManualService.
type mockManualService struct {
	manuals  []domain.Manual
	activeID string
	err      error
}

func (m *mockManualService) List(_ context.Context) ([]domain.Manual, error) {
	return m.manuals, m.err
}

func (m *mockManualService) Get(_ context.Context, ref string) (*domain.Manual, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.manuals {
		if m.manuals[i].ID == ref || m.manuals[i].Name == ref {
			return &m.manuals[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockManualService) Activate(_ context.Context, _ string) (*domain.Manual, error) {
	return nil, m.err
}

func (m *mockManualService) Remove(_ context.Context, _ string, _ bool) error {
	return m.err
}

func (m *mockManualService) Runs(_ context.Context, _ string) ([]domain.IngestRun, error) {
	return nil, m.err
}

func (m *mockManualService) ActiveID(_ context.Context) (string, error) {
	return m.activeID, m.err
}

func (m *mockManualService) LoadActive(_ context.Context) (*domain.Manual, error) {
	return nil, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	progress domain.Progress
	err      error
}

func (m *mockIngestService) Ingest(_ context.Context, _ string, _ domain.IngestOptions) (*domain.Manual, error) {
	return nil, m.err
}

func (m *mockIngestService) IngestPDF(_ context.Context, _ string, _ domain.IngestOptions) (*domain.Manual, error) {
	return nil, m.err
}

func (m *mockIngestService) IngestMarkdown(_ context.Context, _ string, _ domain.IngestOptions) (*domain.Manual, error) {
	return nil, m.err
}

func (m *mockIngestService) Status() (domain.Progress, error) {
	return m.progress, m.err
}
