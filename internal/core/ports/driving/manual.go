package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// ManualService manages the registry of ingested manuals.
type ManualService interface {
	// List returns all registered manuals.
	List(ctx context.Context) ([]domain.Manual, error)

	// Get resolves a manual by ID or name.
	Get(ctx context.Context, ref string) (*domain.Manual, error)

	// Activate loads the manual's knowledge base and makes it the active manual.
	Activate(ctx context.Context, ref string) (*domain.Manual, error)

	// Remove unregisters a manual. When purge is true its directory is deleted too.
	Remove(ctx context.Context, ref string, purge bool) error

	// Runs returns the ingest history of a manual.
	Runs(ctx context.Context, ref string) ([]domain.IngestRun, error)

	// ActiveID returns the ID of the active manual without loading it, or "".
	ActiveID(ctx context.Context) (string, error)

	// LoadActive restores the previously active manual, if any.
	LoadActive(ctx context.Context) (*domain.Manual, error)
}
