package knowledge

import (
	"context"
	"errors"
	"time"
)

// mockEmbedder returns [len(text), index-in-batch] vectors and records batch sizes.
type mockEmbedder struct {
	batches []int
	err     error
	short   bool
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 0}, m.err
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batches = append(m.batches, len(texts))
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, 0, len(texts))
	for i, t := range texts {
		out = append(out, []float32{float32(len(t)), float32(i)})
	}
	if m.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return 2 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

var errEmbed = errors.New("embedding backend down")

// mockMetrics counts model calls by outcome.
type mockMetrics struct {
	calls map[string]int
}

func (m *mockMetrics) ObserveStage(string, time.Duration, error) {}
func (m *mockMetrics) CountModelCall(kind, outcome string) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[kind+"/"+outcome]++
}
func (m *mockMetrics) AddIcons(string, int)                  {}
func (m *mockMetrics) ObserveQuestion(string, time.Duration) {}
