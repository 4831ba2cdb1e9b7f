package driven

import "github.com/custodia-labs/manualqa/internal/core/domain"

// ProgressReporter publishes the latest ingest status snapshot.
// Each Report overwrites the previous snapshot; readers never see history.
type ProgressReporter interface {
	// Report replaces the current snapshot.
	Report(phase domain.Phase, progress int) error

	// Current returns the latest snapshot, or idle if nothing was reported.
	Current() (domain.Progress, error)
}
