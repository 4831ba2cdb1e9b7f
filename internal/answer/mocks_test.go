package answer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// mockLLM answers intent prompts with intentReply and everything else with answerReply.
type mockLLM struct {
	mu          sync.Mutex
	intentReply string
	intentErr   error
	answerReply string
	answerErr   error
	prompts     []string
	opts        []driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if strings.Contains(prompt, "intent classifier") || strings.HasPrefix(prompt, "INTENT") {
		return m.intentReply, m.intentErr
	}
	return m.answerReply, m.answerErr
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// mockRetriever returns fixed hits and records the requested topK.
type mockRetriever struct {
	hits  []domain.SearchHit
	err   error
	query string
	topK  int
}

func (m *mockRetriever) Search(_ context.Context, query string, topK int) ([]domain.SearchHit, error) {
	m.query = query
	m.topK = topK
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", errors.New("prompt not found")
}

func (m *mockPromptStore) Reload() {}

type mockMetrics struct {
	mu         sync.Mutex
	modelCalls map[string]int
	questions  map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{modelCalls: map[string]int{}, questions: map[string]int{}}
}

func (m *mockMetrics) ObserveStage(string, time.Duration, error) {}

func (m *mockMetrics) CountModelCall(kind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelCalls[kind+"/"+outcome]++
}

func (m *mockMetrics) AddIcons(string, int) {}

func (m *mockMetrics) ObserveQuestion(intent string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[intent]++
}

// iconRetriever is a mockRetriever that also exposes an icon vocabulary.
type iconRetriever struct {
	mockRetriever
	icons []domain.IconToken
}

func (r *iconRetriever) Icons() []domain.IconToken {
	return r.icons
}
