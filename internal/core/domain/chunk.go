package domain

import "strconv"

// Chunk is a bounded span of enriched manual text with its embedding.
type Chunk struct {
	// ID is the synthetic sequential identifier, e.g. "chunk_0".
	ID string `json:"id"`

	// Text is the chunk content, possibly containing icon tokens.
	Text string `json:"text"`

	// Section is the heading the chunk came from (markdown manuals only).
	Section string `json:"section,omitempty"`

	// Embedding is the vector produced by the embedding model.
	Embedding []float32 `json:"embedding"`

	// Metadata carries provenance such as the source path.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ChunkID returns the identifier of the n-th chunk (0-based).
func ChunkID(n int) string {
	return "chunk_" + strconv.Itoa(n)
}
