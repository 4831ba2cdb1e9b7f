// Package vectorstore holds one manual's chunks in memory and ranks them
// against a query by cosine similarity.
//
// Vectors are L2-normalised on load so cosine similarity is a plain dot
// product. Search is a full linear scan; a single manual is small enough
// that an index would not pay for itself.
package vectorstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/vecgo/distance"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/knowledge"
)

// Store is an immutable, loaded knowledge base. It is safe for concurrent
// searches.
type Store struct {
	path     string
	ids      []string
	texts    []string
	vectors  [][]float32
	dim      int
	embedder driven.EmbeddingService
}

// Load reads the knowledge base at path. Queries are embedded with embedder,
// which must be the model the file was built with.
func Load(ctx context.Context, path string, embedder driven.EmbeddingService) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chunks, err := knowledge.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	s, err := New(chunks, embedder)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	s.path = path
	return s, nil
}

// New builds a store from chunks already in memory.
// All embeddings must share one dimension.
func New(chunks []domain.Chunk, embedder driven.EmbeddingService) (*Store, error) {
	s := &Store{
		ids:      make([]string, 0, len(chunks)),
		texts:    make([]string, 0, len(chunks)),
		vectors:  make([][]float32, 0, len(chunks)),
		embedder: embedder,
	}
	for i, c := range chunks {
		if i == 0 {
			s.dim = len(c.Embedding)
		} else if len(c.Embedding) != s.dim {
			return nil, fmt.Errorf("chunk %s has dimension %d, expected %d: %w",
				c.ID, len(c.Embedding), s.dim, domain.ErrInvalidInput)
		}
		s.ids = append(s.ids, c.ID)
		s.texts = append(s.texts, c.Text)
		s.vectors = append(s.vectors, normalize(c.Embedding))
	}
	return s, nil
}

// Path returns the file the store was loaded from, if any.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of chunks.
func (s *Store) Len() int {
	return len(s.ids)
}

// Dimensions returns the embedding dimension, 0 for an empty store.
func (s *Store) Dimensions() int {
	return s.dim
}

// Search embeds query and returns at most topK hits by descending cosine
// similarity. topK <= 0 means domain.DefaultTopK.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]domain.SearchHit, error) {
	if s.Len() == 0 {
		return []domain.SearchHit{}, nil
	}
	q, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.SearchVector(q, topK)
}

// SearchVector ranks the stored chunks against an already embedded query.
// Equal scores keep insertion order.
func (s *Store) SearchVector(query []float32, topK int) ([]domain.SearchHit, error) {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	if s.Len() == 0 {
		return []domain.SearchHit{}, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("query has dimension %d, expected %d: %w", len(query), s.dim, domain.ErrInvalidInput)
	}

	q := normalize(query)
	order := make([]int, len(s.vectors))
	scores := make([]float64, len(s.vectors))
	for i, v := range s.vectors {
		order[i] = i
		scores[i] = float64(distance.Dot(q, v))
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	n := min(topK, len(order))
	hits := make([]domain.SearchHit, 0, n)
	for _, i := range order[:n] {
		hits = append(hits, domain.SearchHit{ID: s.ids[i], Score: scores[i], Text: s.texts[i]})
	}
	return hits, nil
}

// normalize returns a unit-length copy of v. Zero vectors stay zero and
// therefore score 0 against everything.
func normalize(v []float32) []float32 {
	if out, ok := distance.NormalizeL2Copy(v); ok {
		return out
	}
	return make([]float32, len(v))
}
