package memory

import (
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure ProgressReporter implements the interface.
var _ driven.ProgressReporter = (*ProgressReporter)(nil)

// ProgressReporter keeps the latest snapshot and the full report history.
type ProgressReporter struct {
	mu      sync.Mutex
	history []domain.Progress
}

// NewProgressReporter creates a reporter in the idle state.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{}
}

// Report replaces the current snapshot.
func (r *ProgressReporter) Report(phase domain.Phase, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, domain.Progress{Phase: phase, Progress: progress})
	return nil
}

// Current returns the latest snapshot, or idle if nothing was reported.
func (r *ProgressReporter) Current() (domain.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return domain.IdleProgress(), nil
	}
	return r.history[len(r.history)-1], nil
}

// History returns every snapshot reported so far, oldest first.
func (r *ProgressReporter) History() []domain.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Progress(nil), r.history...)
}
