package domain

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// pageFilePrefix prefixes every rendered page and is the page id used by icon crops.
const pageFilePrefix = "page_"

// PageImage is one rasterised page of a manual.
type PageImage struct {
	// Index is the 1-based page number.
	Index int

	// Path is the PNG file on disk.
	Path string

	// DPI is the resolution the page was rendered at.
	DPI int
}

// PageID returns the zero-padded page identifier, e.g. "page_003".
// Lexical order of page ids equals page order for manuals under 1000 pages.
func PageID(index int) string {
	return fmt.Sprintf("%s%03d", pageFilePrefix, index)
}

// PageFileName returns the PNG file name for a 1-based page index.
func PageFileName(index int) string {
	return PageID(index) + ".png"
}

// ParsePageID extracts the 1-based page index from a page id or page file name.
func ParsePageID(name string) (int, bool) {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if !strings.HasPrefix(stem, pageFilePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(stem, pageFilePrefix))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
