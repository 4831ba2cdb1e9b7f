package merger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

type mockExtractor struct {
	pages []string
	err   error
	path  string
}

func (m *mockExtractor) PageCount(_ context.Context, _ string) (int, error) {
	return len(m.pages), m.err
}

func (m *mockExtractor) ExtractPages(_ context.Context, path string) ([]string, error) {
	m.path = path
	return m.pages, m.err
}

func TestMergePages(t *testing.T) {
	pages := []string{"Page one text.", "Page two text.", "Page three text."}
	tokens := []domain.IconToken{
		{Token: "<icon:eco>", Representative: "/m/icons/page_003_icon_0000.png"},
		{Token: "<icon:lock>", Representative: "/m/icons/page_001_icon_0001.png"},
		{Token: "<icon:fan>", Representative: "/m/icons/page_003_icon_0002.png"},
	}

	got := MergePages(pages, tokens)

	assert.Equal(t,
		"<icon:lock>\nPage one text.\n\nPage two text.\n\n<icon:eco> <icon:fan>\nPage three text.",
		got)
}

func TestMergePages_NoTokensIsPlainText(t *testing.T) {
	pages := []string{"alpha", "beta"}

	assert.Equal(t, "alpha\n\nbeta", MergePages(pages, nil))
}

func TestMergePages_TokensForMissingPagesIgnored(t *testing.T) {
	tokens := []domain.IconToken{{Token: "<icon:x>", Representative: "page_009_icon_0000.png"}}

	assert.Equal(t, "only page", MergePages([]string{"only page"}, tokens))
}

func TestMergePages_NoPages(t *testing.T) {
	assert.Equal(t, "", MergePages(nil, nil))
}

func TestMerge_UsesExtractor(t *testing.T) {
	ext := &mockExtractor{pages: []string{"p1", "p2"}}
	tokens := []domain.IconToken{{Token: "<icon:wifi>", Representative: "page_002_icon_0000.png"}}

	got, err := New(ext).Merge(context.Background(), "/tmp/manual.pdf", tokens)

	require.NoError(t, err)
	assert.Equal(t, "p1\n\n<icon:wifi>\np2", got)
	assert.Equal(t, "/tmp/manual.pdf", ext.path)
}

func TestMerge_ExtractorError(t *testing.T) {
	ext := &mockExtractor{err: domain.ErrPDFUnreadable}

	_, err := New(ext).Merge(context.Background(), "/tmp/manual.pdf", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPDFUnreadable))
}
