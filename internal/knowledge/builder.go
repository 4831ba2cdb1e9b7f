// Package knowledge builds and reads a manual's chunk-and-embedding file.
//
// The builder never holds more than one embedding batch in memory: chunks
// stream out of a splitter, are embedded a batch at a time and are written
// straight into the JSON array on disk.
package knowledge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// SourceKey is the metadata key holding the manual's source path.
const SourceKey = "source"

// Builder embeds chunks and writes knowledge base records.
type Builder struct {
	embedder  driven.EmbeddingService
	batchSize int
	metrics   driven.Metrics
}

// Option configures a Builder.
type Option func(*Builder)

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithMetrics records embedding calls.
func WithMetrics(m driven.Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// NewBuilder creates a builder using embedder for every chunk.
func NewBuilder(embedder driven.EmbeddingService, opts ...Option) *Builder {
	b := &Builder{
		embedder:  embedder,
		batchSize: domain.DefaultEmbedBatch,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build splits r, embeds the chunks in batches and streams the records to
// w. Records get ids chunk_0, chunk_1, ... and metadata {source}.
// It returns the number of records written.
func (b *Builder) Build(ctx context.Context, splitter driven.Splitter, r io.Reader, w io.Writer, source string) (int, error) {
	jw := NewWriter(w)
	batch := make([]domain.Chunk, 0, b.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := b.embedder.EmbedBatch(ctx, texts)
		b.countCall(err)
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embed batch: got %d vectors for %d chunks", len(vectors), len(batch))
		}

		for i, c := range batch {
			c.ID = domain.ChunkID(jw.Count())
			c.Embedding = vectors[i]
			c.Metadata = map[string]string{SourceKey: source}
			if err := jw.Write(c); err != nil {
				return err
			}
		}
		batch = batch[:0]
		return nil
	}

	err := splitter.Split(ctx, r, func(c domain.Chunk) error {
		batch = append(batch, c)
		if len(batch) >= b.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return jw.Count(), err
	}
	if err := flush(); err != nil {
		return jw.Count(), err
	}
	if err := jw.Close(); err != nil {
		return jw.Count(), err
	}

	logger.Debug("knowledge: %d chunks via %s", jw.Count(), splitter.Name())
	return jw.Count(), nil
}

// BuildFile reads the text at inPath and writes the knowledge base to outPath.
func (b *Builder) BuildFile(ctx context.Context, splitter driven.Splitter, inPath, outPath, source string) (int, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", filepath.Base(inPath), err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", filepath.Base(outPath), err)
	}

	bw := bufio.NewWriter(out)
	n, buildErr := b.Build(ctx, splitter, in, bw, source)
	flushErr := bw.Flush()
	closeErr := out.Close()

	switch {
	case buildErr != nil:
		return n, buildErr
	case flushErr != nil:
		return n, fmt.Errorf("flush %s: %w", filepath.Base(outPath), flushErr)
	case closeErr != nil:
		return n, fmt.Errorf("close %s: %w", filepath.Base(outPath), closeErr)
	}
	return n, nil
}

func (b *Builder) countCall(err error) {
	if b.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	b.metrics.CountModelCall("embedding", outcome)
}
