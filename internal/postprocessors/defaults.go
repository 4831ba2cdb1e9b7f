package postprocessors

import (
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/postprocessors/chunker"
)

// Splitter names.
const (
	SplitterChunker  = "chunker"
	SplitterMarkdown = "markdown"
)

// kindSplitters selects the splitter for each manual kind.
var kindSplitters = map[domain.ManualKind]string{
	domain.ManualKindPDF:      SplitterChunker,
	domain.ManualKindMarkdown: SplitterMarkdown,
}

// RegisterDefaults registers all built-in splitters with the registry.
// Call this during application initialisation to enable standard splitters.
func RegisterDefaults(r *Registry) {
	r.Register(SplitterChunker, buildChunker)
	r.Register(SplitterMarkdown, buildMarkdown)
}

// NewDefaultRegistry returns a registry with the built-in splitters.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// ConfigFromSettings maps application settings to splitter config keys.
func ConfigFromSettings(s domain.AppSettings) map[string]any {
	return map[string]any{
		"chunk_size":    s.Pipeline.ChunkSize,
		"overlap":       s.Pipeline.ChunkOverlap,
		"chunk_words":   s.Markdown.ChunkWords,
		"overlap_words": s.Markdown.OverlapWords,
	}
}

// buildChunker creates a rune-window chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Runes per chunk (default: 1200)
//   - overlap (int): Overlapping runes between chunks (default: 250)
func buildChunker(cfg map[string]any) (driven.Splitter, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if _, ok := cfg["overlap"]; ok {
			opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "overlap")))
		}
	}

	return chunker.New(opts...), nil
}

// buildMarkdown creates a heading-aware word-window splitter.
// Supported config keys:
//   - chunk_words (int): Words per window (default: 1000)
//   - overlap_words (int): Overlapping words between windows (default: 200)
func buildMarkdown(cfg map[string]any) (driven.Splitter, error) {
	words, overlap := 0, -1
	if cfg != nil {
		words = getIntFromConfig(cfg, "chunk_words")
		if _, ok := cfg["overlap_words"]; ok {
			overlap = getIntFromConfig(cfg, "overlap_words")
		}
	}
	return chunker.NewMarkdown(words, overlap), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
