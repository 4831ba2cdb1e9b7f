package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestConfigValidator_UnconfiguredIsValid(t *testing.T) {
	v := NewConfigValidator()

	assert.NoError(t, v.ValidateVision(nil))
	assert.NoError(t, v.ValidateEmbedding(&domain.EmbeddingSettings{}))
	assert.NoError(t, v.ValidateLLM(nil))
}

func TestConfigValidator_PingsProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()
	v := NewConfigValidator()

	vision := &domain.VisionSettings{ProviderSettings: provider(domain.AIProviderOllama, "llava", "", server.URL)}
	assert.NoError(t, v.ValidateVision(vision))

	gemini := &domain.LLMSettings{ProviderSettings: provider(domain.AIProviderGemini, "gemini-2.0-flash", "k", server.URL)}
	assert.Error(t, v.ValidateLLM(gemini))
}
