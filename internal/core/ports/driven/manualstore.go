package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// ManualStore persists the manual registry and ingest history.
type ManualStore interface {
	// Save stores or updates a manual.
	Save(ctx context.Context, manual domain.Manual) error

	// Get retrieves a manual by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Manual, error)

	// GetByName retrieves a manual by its unique name. Returns domain.ErrNotFound if absent.
	GetByName(ctx context.Context, name string) (*domain.Manual, error)

	// List returns all manuals, most recently updated first.
	List(ctx context.Context) ([]domain.Manual, error)

	// Delete removes a manual and its runs.
	Delete(ctx context.Context, id string) error

	// SetActive records the manual used for answering. An empty id clears it.
	SetActive(ctx context.Context, id string) error

	// Active returns the active manual ID, or "" if none is set.
	Active(ctx context.Context) (string, error)

	// SaveRun stores or updates an ingest run.
	SaveRun(ctx context.Context, run domain.IngestRun) error

	// ListRuns returns the runs of a manual, newest first.
	ListRuns(ctx context.Context, manualID string) ([]domain.IngestRun, error)
}
