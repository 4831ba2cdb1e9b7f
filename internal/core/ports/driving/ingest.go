package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// IngestService turns manual files into queryable knowledge bases.
type IngestService interface {
	// Ingest dispatches on the file extension to IngestPDF or IngestMarkdown.
	Ingest(ctx context.Context, path string, opts domain.IngestOptions) (*domain.Manual, error)

	// IngestPDF runs the icon-aware pipeline for a PDF manual.
	IngestPDF(ctx context.Context, pdfPath string, opts domain.IngestOptions) (*domain.Manual, error)

	// IngestMarkdown chunks a markdown manual by heading and embeds it.
	IngestMarkdown(ctx context.Context, mdPath string, opts domain.IngestOptions) (*domain.Manual, error)

	// Status returns the latest ingest progress snapshot.
	Status() (domain.Progress, error)
}
