package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// Splitter cuts a text stream into chunks ready for embedding.
// Splitters are selected per manual kind (plain PDF text, markdown).
type Splitter interface {
	// Name returns the splitter name for logging and configuration.
	Name() string

	// Split reads r to EOF and calls emit once per chunk, in order.
	// Only Text and Section are set; ids and embeddings are assigned by the caller.
	// An error from emit stops the split and is returned unchanged.
	Split(ctx context.Context, r io.Reader, emit func(domain.Chunk) error) error
}
