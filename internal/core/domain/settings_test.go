package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini} {
		assert.True(t, p.IsValid(), p)
	}
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
	assert.True(t, AIProviderOllama.IsLocal())
	assert.False(t, AIProviderGemini.IsLocal())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Google Gemini (cloud)", AIProviderGemini.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

func TestProviderSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings ProviderSettings
		expected bool
	}{
		{"empty", ProviderSettings{}, false},
		{"ollama without key", ProviderSettings{Provider: AIProviderOllama}, true},
		{"gemini without key", ProviderSettings{Provider: AIProviderGemini}, false},
		{"gemini with key", ProviderSettings{Provider: AIProviderGemini, APIKey: "k"}, true},
		{"invalid provider", ProviderSettings{Provider: "nope", APIKey: "k"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderGemini, s.Vision.Provider)
	assert.Equal(t, "gemini-2.0-flash", s.Vision.Model)
	assert.Equal(t, 15, s.Vision.RequestsPerMinute)
	assert.Equal(t, AIProviderOllama, s.Embedding.Provider)
	assert.Equal(t, "all-minilm", s.Embedding.Model)
	assert.True(t, s.Embedding.IsConfigured())
	assert.False(t, s.LLM.IsConfigured())

	assert.Equal(t, 200, s.Pipeline.DPI)
	assert.Equal(t, 5, s.Pipeline.HashThreshold)
	assert.Equal(t, 10, s.Pipeline.ClassifyBatch)
	assert.Equal(t, 1200, s.Pipeline.ChunkSize)
	assert.Equal(t, 250, s.Pipeline.ChunkOverlap)
	assert.Equal(t, 4, s.Pipeline.EmbedBatch)
	assert.Equal(t, 5, s.Answer.TopK)
	assert.Equal(t, 1000, s.Markdown.ChunkWords)
	assert.Equal(t, 200, s.Markdown.OverlapWords)
}

func TestProviderLists(t *testing.T) {
	assert.NotContains(t, AllEmbeddingProviders(), AIProviderAnthropic)
	assert.NotContains(t, AllEmbeddingProviders(), AIProviderGemini)
	assert.Contains(t, AllVisionProviders(), AIProviderGemini)
	assert.Contains(t, AllLLMProviders(), AIProviderAnthropic)

	for _, p := range AllVisionProviders() {
		assert.NotEmpty(t, DefaultVisionModels()[p], p)
	}
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, DefaultLLMModels()[p], p)
	}
	for _, p := range AllEmbeddingProviders() {
		assert.NotEmpty(t, DefaultEmbeddingModels()[p], p)
	}
	assert.Equal(t, 384, EmbeddingDimensions()["all-minilm"])
}

func TestAIProvider_APIKeyEnv(t *testing.T) {
	assert.Equal(t, "GOOGLE_API_KEY", AIProviderGemini.APIKeyEnv())
	assert.Equal(t, "OPENAI_API_KEY", AIProviderOpenAI.APIKeyEnv())
	assert.Equal(t, "ANTHROPIC_API_KEY", AIProviderAnthropic.APIKeyEnv())
	assert.Empty(t, AIProviderOllama.APIKeyEnv())
}
