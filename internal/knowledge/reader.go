package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// record mirrors domain.Chunk but also accepts numeric ids written by
// older markdown ingests.
type record struct {
	ID        json.RawMessage   `json:"id"`
	Text      string            `json:"text"`
	Section   string            `json:"section"`
	Embedding []float32         `json:"embedding"`
	Metadata  map[string]string `json:"metadata"`
}

func (r record) chunk() (domain.Chunk, error) {
	c := domain.Chunk{
		Text:      r.Text,
		Section:   r.Section,
		Embedding: r.Embedding,
		Metadata:  r.Metadata,
	}
	var s string
	if err := json.Unmarshal(r.ID, &s); err == nil {
		c.ID = s
		return c, nil
	}
	n, err := strconv.Atoi(string(r.ID))
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("invalid id %s", r.ID)
	}
	c.ID = domain.ChunkID(n)
	return c, nil
}

// ReadRecords decodes a JSON array of chunk records one element at a
// time and calls fn for each.
func ReadRecords(r io.Reader, fn func(domain.Chunk) error) error {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read array start: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("expected JSON array: %w", domain.ErrInvalidInput)
	}

	for i := 0; dec.More(); i++ {
		var rec record
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("decode record %d: %w", i, err)
		}
		c, err := rec.chunk()
		if err != nil {
			return fmt.Errorf("decode record %d: %w", i, err)
		}
		if err := fn(c); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read array end: %w", err)
	}
	return nil
}

// ReadFile loads every record of a knowledge base file.
// A missing file wraps domain.ErrKnowledgeNotFound.
func ReadFile(path string) ([]domain.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", path, domain.ErrKnowledgeNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	chunks := make([]domain.Chunk, 0)
	err = ReadRecords(f, func(c domain.Chunk) error {
		chunks = append(chunks, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}
