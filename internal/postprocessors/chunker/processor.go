// Package chunker splits manual text into overlapping chunks for embedding.
package chunker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Splitter = (*Processor)(nil)

// Processor streams text into fixed-size overlapping chunks.
// Sizes count runes, not bytes.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in runes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in runes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// The step between chunks must stay positive.
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Split reads r line by line into a buffer. Whenever the buffer holds at
// least chunkSize runes, the first chunkSize runes are emitted with
// trailing whitespace removed and the buffer keeps everything after the
// first chunkSize-overlap runes. The trimmed remainder is emitted at EOF.
// Chunks that are entirely whitespace are skipped.
func (p *Processor) Split(ctx context.Context, r io.Reader, emit func(domain.Chunk) error) error {
	br := bufio.NewReader(r)
	step := p.chunkSize - p.overlap
	var buf []rune

	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read text: %w", readErr)
		}
		buf = append(buf, []rune(line)...)

		for len(buf) >= p.chunkSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			text := strings.TrimRightFunc(string(buf[:p.chunkSize]), unicode.IsSpace)
			if text != "" {
				if err := emit(domain.Chunk{Text: text}); err != nil {
					return err
				}
			}
			n := copy(buf, buf[step:])
			buf = buf[:n]
		}

		if readErr != nil {
			break
		}
	}

	if rest := strings.TrimSpace(string(buf)); rest != "" {
		return emit(domain.Chunk{Text: rest})
	}
	return nil
}

// Chunks splits text in memory and returns the chunk texts.
func (p *Processor) Chunks(text string) []string {
	var out []string
	_ = p.Split(context.Background(), strings.NewReader(text), func(c domain.Chunk) error {
		out = append(out, c.Text)
		return nil
	})
	return out
}
