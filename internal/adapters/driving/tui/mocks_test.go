package tui

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

type mockQA struct {
	answer *domain.Answer
	active *domain.Manual
	err    error
}

func (m *mockQA) Ask(_ context.Context, _ string) (*domain.Answer, error) {
	return m.answer, m.err
}

func (m *mockQA) Search(_ context.Context, _ string, _ int) ([]domain.SearchHit, error) {
	return nil, m.err
}

func (m *mockQA) ActiveManual() *domain.Manual {
	return m.active
}

type mockManuals struct {
	manuals  []domain.Manual
	activeID string
	err      error
}

func (m *mockManuals) List(_ context.Context) ([]domain.Manual, error) {
	return m.manuals, m.err
}

func (m *mockManuals) Get(_ context.Context, _ string) (*domain.Manual, error) {
	return nil, domain.ErrNotFound
}

func (m *mockManuals) Activate(_ context.Context, ref string) (*domain.Manual, error) {
	for i := range m.manuals {
		if m.manuals[i].ID == ref {
			m.activeID = ref
			return &m.manuals[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockManuals) Remove(_ context.Context, _ string, _ bool) error {
	return nil
}

func (m *mockManuals) Runs(_ context.Context, _ string) ([]domain.IngestRun, error) {
	return nil, nil
}

func (m *mockManuals) ActiveID(_ context.Context) (string, error) {
	return m.activeID, m.err
}

func (m *mockManuals) LoadActive(_ context.Context) (*domain.Manual, error) {
	return nil, nil
}

type mockIngest struct {
	progress domain.Progress
}

func (m *mockIngest) Ingest(_ context.Context, _ string, _ domain.IngestOptions) (*domain.Manual, error) {
	return nil, nil
}

func (m *mockIngest) IngestPDF(_ context.Context, _ string, _ domain.IngestOptions) (*domain.Manual, error) {
	return nil, nil
}

func (m *mockIngest) IngestMarkdown(_ context.Context, _ string, _ domain.IngestOptions) (*domain.Manual, error) {
	return nil, nil
}

func (m *mockIngest) Status() (domain.Progress, error) {
	return m.progress, nil
}
