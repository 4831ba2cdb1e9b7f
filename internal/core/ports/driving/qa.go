package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// QAService answers questions against the active manual.
type QAService interface {
	// Ask classifies, retrieves and answers. With no active manual it returns
	// domain.NoManualMessage without calling any model.
	Ask(ctx context.Context, question string) (*domain.Answer, error)

	// Search returns the topK most similar chunks of the active manual.
	// Returns domain.ErrNoActiveManual if nothing is loaded.
	Search(ctx context.Context, query string, topK int) ([]domain.SearchHit, error)

	// ActiveManual returns the manual currently used for answering, or nil.
	ActiveManual() *domain.Manual
}
