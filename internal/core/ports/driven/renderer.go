package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// PageRenderer rasterises every page of a PDF.
type PageRenderer interface {
	// Render writes one PNG per page into outDir, named page_NNN.png, and
	// returns the pages in document order. Existing files are overwritten;
	// stale files from earlier runs are left alone.
	// Returns an error wrapping domain.ErrPDFUnreadable if the PDF cannot be opened.
	Render(ctx context.Context, pdfPath, outDir string, dpi int) ([]domain.PageImage, error)
}

// TextExtractor extracts plain text from a PDF.
type TextExtractor interface {
	// PageCount returns the number of pages.
	PageCount(ctx context.Context, pdfPath string) (int, error)

	// ExtractPages returns the plain text of every page in document order.
	ExtractPages(ctx context.Context, pdfPath string) ([]string, error)
}
