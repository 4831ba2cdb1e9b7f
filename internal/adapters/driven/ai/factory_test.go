package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/vision/guard"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func provider(p domain.AIProvider, model, key, baseURL string) domain.ProviderSettings {
	return domain.ProviderSettings{Provider: p, Model: model, APIKey: key, BaseURL: baseURL}
}

func TestServices_CloseWithNilServices(t *testing.T) {
	s := &Services{}
	s.Close()
}

func TestCreateVisionService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.VisionSettings
		wantNil  bool
		wantErr  string
	}{
		{"nil settings", nil, true, ""},
		{"unconfigured", &domain.VisionSettings{}, true, ""},
		{"gemini without key", &domain.VisionSettings{ProviderSettings: provider(domain.AIProviderGemini, "", "", "")}, true, ""},
		{"gemini", &domain.VisionSettings{ProviderSettings: provider(domain.AIProviderGemini, "gemini-2.0-flash", "k", "")}, false, ""},
		{"openai", &domain.VisionSettings{ProviderSettings: provider(domain.AIProviderOpenAI, "gpt-4o-mini", "k", "")}, false, ""},
		{"ollama", &domain.VisionSettings{ProviderSettings: provider(domain.AIProviderOllama, "llava", "", "http://localhost:11434")}, false, ""},
		{"anthropic rejected", &domain.VisionSettings{ProviderSettings: provider(domain.AIProviderAnthropic, "", "k", "")}, true, "does not accept images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateVisionService(tt.settings)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.IsType(t, &guard.Guard{}, svc)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
		})
	}
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  string
		wantDim  int
	}{
		{"nil settings", nil, true, "", 0},
		{"unconfigured", &domain.EmbeddingSettings{}, true, "", 0},
		{"ollama minilm", &domain.EmbeddingSettings{ProviderSettings: provider(domain.AIProviderOllama, "all-minilm", "", "")}, false, "", 384},
		{"ollama nomic", &domain.EmbeddingSettings{ProviderSettings: provider(domain.AIProviderOllama, "nomic-embed-text", "", "")}, false, "", 768},
		{"openai", &domain.EmbeddingSettings{ProviderSettings: provider(domain.AIProviderOpenAI, "text-embedding-3-small", "k", "")}, false, "", 1536},
		{"gemini rejected", &domain.EmbeddingSettings{ProviderSettings: provider(domain.AIProviderGemini, "", "k", "")}, true, "does not support embeddings", 0},
		{"anthropic rejected", &domain.EmbeddingSettings{ProviderSettings: provider(domain.AIProviderAnthropic, "", "k", "")}, true, "does not support embeddings", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantDim, svc.Dimensions())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	for _, p := range domain.AllLLMProviders() {
		t.Run(string(p), func(t *testing.T) {
			settings := &domain.LLMSettings{ProviderSettings: provider(p, domain.DefaultLLMModels()[p], "k", "")}

			svc, err := CreateLLMService(settings)

			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Equal(t, domain.DefaultLLMModels()[p], svc.ModelName())
		})
	}

	svc, err := CreateLLMService(&domain.LLMSettings{})
	assert.NoError(t, err)
	assert.Nil(t, svc)
}

func TestCreateAndValidateEmbeddingService_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	settings := &domain.EmbeddingSettings{ProviderSettings: provider(domain.AIProviderOllama, "all-minilm", "", server.URL)}

	svc, err := CreateAndValidateEmbeddingService(settings)

	assert.Nil(t, svc)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorContains(t, err, "manualqa settings set")
}

func TestCreateAndValidateLLMService_Reachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()
	settings := &domain.LLMSettings{ProviderSettings: provider(domain.AIProviderOllama, "llama3.2", "", server.URL)}

	svc, err := CreateAndValidateLLMService(settings)

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestInit_CollectsWarnings(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Embedding.Provider = domain.AIProviderAnthropic
	settings.Embedding.APIKey = "k"

	s := Init(settings, false)
	defer s.Close()

	assert.Nil(t, s.Embedding)
	assert.Nil(t, s.LLM)
	assert.Nil(t, s.Vision)
	require.Len(t, s.Warnings, 1)
	assert.Contains(t, s.Warnings[0], "does not support embeddings")
}
