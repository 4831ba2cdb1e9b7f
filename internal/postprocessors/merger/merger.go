// Package merger injects icon tokens into extracted page text.
package merger

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/icons/tokenizer"
)

// PageSeparator joins the text of consecutive pages.
const PageSeparator = "\n\n"

// Merger re-reads a manual's text and ties each icon token to its page.
type Merger struct {
	extractor driven.TextExtractor
}

// New creates a merger that reads text through extractor.
func New(extractor driven.TextExtractor) *Merger {
	return &Merger{extractor: extractor}
}

// Merge extracts the text of every page of pdfPath and returns the
// enriched document.
func (m *Merger) Merge(ctx context.Context, pdfPath string, tokens []domain.IconToken) (string, error) {
	pages, err := m.extractor.ExtractPages(ctx, pdfPath)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return MergePages(pages, tokens), nil
}

// MergePages prepends a line of space-separated tokens to every page that
// has icons, then joins the pages with a blank line. pages[0] is page_001.
func MergePages(pages []string, tokens []domain.IconToken) string {
	byPage := tokenizer.ByPage(tokens)

	var b strings.Builder
	for i, text := range pages {
		if i > 0 {
			b.WriteString(PageSeparator)
		}
		if pageTokens := byPage[domain.PageID(i+1)]; len(pageTokens) > 0 {
			b.WriteString(strings.Join(pageTokens, " "))
			b.WriteByte('\n')
		}
		b.WriteString(text)
	}
	return b.String()
}
