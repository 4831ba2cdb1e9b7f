package classifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// mockVision scripts replies per prompt and records every call.
type mockVision struct {
	mu             sync.Mutex
	detectReply    string
	detectErr      error
	classifyReply  string
	classifyErr    error
	detectPrompt   string
	calls          []string
	callsPerPrompt map[string]int
}

func newMockVision(detect, classify string) *mockVision {
	return &mockVision{
		detectReply:    detect,
		classifyReply:  classify,
		detectPrompt:   defaultDetectPrompt,
		callsPerPrompt: make(map[string]int),
	}
}

func (m *mockVision) Describe(_ context.Context, img driven.Image, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, string(img.Data))
	m.callsPerPrompt[prompt]++
	if prompt == m.detectPrompt {
		return m.detectReply, m.detectErr
	}
	return m.classifyReply, m.classifyErr
}

func (m *mockVision) ModelName() string            { return "mock-vision" }
func (m *mockVision) Ping(_ context.Context) error { return nil }
func (m *mockVision) Close() error                 { return nil }

func (m *mockVision) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockPromptStore serves fixed prompts.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("not found")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockMetrics counts recorded values.
type mockMetrics struct {
	mu         sync.Mutex
	modelCalls map[string]int
	icons      map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{modelCalls: make(map[string]int), icons: make(map[string]int)}
}

func (m *mockMetrics) ObserveStage(string, time.Duration, error) {}

func (m *mockMetrics) CountModelCall(kind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelCalls[kind+"/"+outcome]++
}

func (m *mockMetrics) AddIcons(stage string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.icons[stage] += n
}

func (m *mockMetrics) ObserveQuestion(string, time.Duration) {}

// recordingSleeper collects requested sleeps instead of blocking.
type recordingSleeper struct {
	sleeps []time.Duration
}

func (r *recordingSleeper) sleep(d time.Duration) {
	r.sleeps = append(r.sleeps, d)
}
