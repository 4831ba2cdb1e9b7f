package chunker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// DefaultSection titles text that appears before the first heading.
const DefaultSection = "General"

var headingLine = regexp.MustCompile(`^#{1,6}\s`)

// Ensure Markdown implements the interface.
var _ driven.Splitter = (*Markdown)(nil)

// Section is a heading and the lines that follow it.
type Section struct {
	Title string
	Text  string
}

// Markdown splits markdown by headings, then slides a word window over
// each section. Sizes count whitespace-separated words.
type Markdown struct {
	words   int
	overlap int
}

// NewMarkdown creates a markdown splitter. An overlap at or above the
// window size is reduced to a quarter of the window.
func NewMarkdown(words, overlap int) *Markdown {
	if words <= 0 {
		words = domain.DefaultMarkdownWords
	}
	if overlap < 0 {
		overlap = domain.DefaultMarkdownOverlap
	}
	if overlap >= words {
		overlap = words / 4
	}
	return &Markdown{words: words, overlap: overlap}
}

// Name returns the splitter name.
func (m *Markdown) Name() string {
	return "markdown"
}

// Split reads the whole document, splits it into sections and emits each
// section's word windows with the section title attached.
func (m *Markdown) Split(ctx context.Context, r io.Reader, emit func(domain.Chunk) error) error {
	sections, err := SplitSections(r)
	if err != nil {
		return err
	}
	for _, s := range sections {
		for _, text := range WordWindows(s.Text, m.words, m.overlap) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emit(domain.Chunk{Text: text, Section: s.Title}); err != nil {
				return err
			}
		}
	}
	return nil
}

// SplitSections groups lines under the nearest preceding heading
// (# to ###### followed by whitespace). Heading lines are not part of the
// section text. Text before the first heading belongs to DefaultSection.
func SplitSections(r io.Reader) ([]Section, error) {
	var sections []Section
	title := DefaultSection
	var lines []string

	flush := func() {
		if len(lines) > 0 {
			sections = append(sections, Section{Title: title, Text: strings.Join(lines, "\n")})
			lines = nil
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if headingLine.MatchString(line) {
			flush()
			title = strings.TrimSpace(strings.TrimLeft(line, "#"))
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	flush()
	return sections, nil
}

// WordWindows returns windows of size words, each starting size-overlap
// words after the previous one, joined by single spaces.
func WordWindows(text string, size, overlap int) []string {
	words := strings.Fields(text)
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var out []string
	for start := 0; start < len(words); start += step {
		end := min(start+size, len(words))
		out = append(out, strings.Join(words[start:end], " "))
	}
	return out
}
