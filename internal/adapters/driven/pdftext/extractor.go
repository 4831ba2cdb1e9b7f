// Package pdftext pulls plain text out of PDF files with ledongthuc/pdf.
package pdftext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor reads the text layer of a PDF. Scanned pages without a text
// layer come back as empty strings.
type Extractor struct{}

// New creates an extractor.
func New() *Extractor {
	return &Extractor{}
}

// PageCount returns the number of pages.
func (e *Extractor) PageCount(_ context.Context, pdfPath string) (int, error) {
	var n int
	err := withReader(pdfPath, func(r *pdf.Reader) error {
		n = r.NumPage()
		return nil
	})
	return n, err
}

// ExtractPages returns the plain text of every page in document order.
// A page whose content cannot be decoded yields "" rather than failing the
// whole document.
func (e *Extractor) ExtractPages(ctx context.Context, pdfPath string) ([]string, error) {
	var pages []string
	err := withReader(pdfPath, func(r *pdf.Reader) error {
		total := r.NumPage()
		pages = make([]string, 0, total)
		fonts := make(map[string]*pdf.Font)
		for i := 1; i <= total; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			pages = append(pages, pageText(r.Page(i), i, fonts))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func pageText(page pdf.Page, index int, fonts map[string]*pdf.Font) (text string) {
	if page.V.IsNull() {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("pdftext: page %d: %v", index, r)
			text = ""
		}
	}()
	for _, name := range page.Fonts() {
		if _, ok := fonts[name]; !ok {
			f := page.Font(name)
			fonts[name] = &f
		}
	}
	text, err := page.GetPlainText(fonts)
	if err != nil {
		logger.Debug("pdftext: page %d: %v", index, err)
		return ""
	}
	return strings.TrimSpace(text)
}

// withReader opens pdfPath and hands the reader to fn. The pdf package
// panics on some malformed inputs, so panics are reported as unreadable.
func withReader(pdfPath string, fn func(*pdf.Reader) error) (err error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(pdfPath), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", filepath.Base(pdfPath), err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", filepath.Base(pdfPath), domain.ErrPDFUnreadable, r)
		}
	}()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return fmt.Errorf("%s: %w: %w", filepath.Base(pdfPath), domain.ErrPDFUnreadable, err)
	}
	return fn(reader)
}
