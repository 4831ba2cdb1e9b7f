package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageFileName(t *testing.T) {
	assert.Equal(t, "page_001.png", PageFileName(1))
	assert.Equal(t, "page_042.png", PageFileName(42))
	assert.Equal(t, "page_123.png", PageFileName(123))
}

func TestPageFileName_LexicalOrderIsPageOrder(t *testing.T) {
	var names []string
	for i := 120; i >= 1; i-- {
		names = append(names, PageFileName(i))
	}
	sort.Strings(names)

	for i, name := range names {
		n, ok := ParsePageID(name)
		assert.True(t, ok)
		assert.Equal(t, i+1, n)
	}
}

func TestParsePageID(t *testing.T) {
	n, ok := ParsePageID("/tmp/pages/page_007.png")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	n, ok = ParsePageID("page_010")
	assert.True(t, ok)
	assert.Equal(t, 10, n)

	_, ok = ParsePageID("cover.png")
	assert.False(t, ok)

	_, ok = ParsePageID("page_abc.png")
	assert.False(t, ok)

	_, ok = ParsePageID("page_000.png")
	assert.False(t, ok)
}
