package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// envMap returns an env lookup backed by a map.
func envMap(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func newTestSettingsService(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)
	service.SetEnvLookup(envMap(env))
	return service, store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Vision, settings.Vision)
	assert.Equal(t, defaults.Embedding, settings.Embedding)
	assert.Equal(t, defaults.LLM, settings.LLM)
	assert.Equal(t, defaults.Pipeline, settings.Pipeline)
	assert.Equal(t, defaults.Markdown, settings.Markdown)
	assert.Equal(t, defaults.Answer, settings.Answer)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("vision.provider", "openai")
	_ = store.Set("vision.api_key", "sk-vision")
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.model", "text-embedding-3-large")
	_ = store.Set("pipeline.chunk_size", 800)
	_ = store.Set("pipeline.cooldown_seconds", 2)
	_ = store.Set("answer.top_k", 8)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Vision.Provider)
	assert.Equal(t, "gpt-4o-mini", settings.Vision.Model)
	assert.Equal(t, "sk-vision", settings.Vision.APIKey)
	assert.Empty(t, settings.Vision.BaseURL)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, 800, settings.Pipeline.ChunkSize)
	assert.Equal(t, 2*time.Second, settings.Pipeline.Cooldown)
	assert.Equal(t, 8, settings.Answer.TopK)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("llm.provider", "invalid_provider")
	_ = store.Set("pipeline.dpi", -10)
	_ = store.Set("pipeline.hash_threshold", -1)
	_ = store.Set("answer.top_k", 0)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.Pipeline.DPI, settings.Pipeline.DPI)
	assert.Equal(t, defaults.Pipeline.HashThreshold, settings.Pipeline.HashThreshold)
	assert.Equal(t, defaults.Answer.TopK, settings.Answer.TopK)
}

func TestSettingsService_Get_ZeroIsAValidSetting(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("pipeline.hash_threshold", 0)
	_ = store.Set("pipeline.cooldown_seconds", 0)
	_ = store.Set("vision.rpm", 0)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, 0, settings.Pipeline.HashThreshold)
	assert.Equal(t, time.Duration(0), settings.Pipeline.Cooldown)
	assert.Equal(t, 0, settings.Vision.RequestsPerMinute)
}

func TestSettingsService_Get_APIKeyFromEnvironment(t *testing.T) {
	service, _ := newTestSettingsService(map[string]string{"GOOGLE_API_KEY": "g-env"})

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "g-env", settings.Vision.APIKey)
	assert.Equal(t, "g-env", settings.LLM.APIKey)
	assert.Empty(t, settings.Embedding.APIKey)
}

func TestSettingsService_Get_ConfigKeyWinsOverEnvironment(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{"GOOGLE_API_KEY": "g-env"})
	_ = store.Set("llm.api_key", "g-file")

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "g-file", settings.LLM.APIKey)
	assert.Equal(t, "g-env", settings.Vision.APIKey)
}

func TestSettingsService_Save_RoundTrip(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	settings := domain.DefaultAppSettings()
	settings.LLM.ProviderSettings = domain.ProviderSettings{
		Provider: domain.AIProviderAnthropic,
		Model:    "claude-3-5-haiku-latest",
		APIKey:   "sk-ant",
	}
	settings.Pipeline.HashThreshold = 3
	settings.Pipeline.Cooldown = 4 * time.Second
	settings.Markdown.ChunkWords = 300
	require.NoError(t, service.Save(&settings))

	got, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, settings.LLM, got.LLM)
	assert.Equal(t, 3, got.Pipeline.HashThreshold)
	assert.Equal(t, 4*time.Second, got.Pipeline.Cooldown)
	assert.Equal(t, 300, got.Markdown.ChunkWords)
}

func TestSettingsService_Save_DoesNotPersistEnvironmentKey(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{"GOOGLE_API_KEY": "g-env"})

	settings, err := service.Get()
	require.NoError(t, err)
	require.NoError(t, service.Save(settings))

	_, exists := store.Get("llm.api_key")
	assert.False(t, exists)
	_, exists = store.Get("vision.api_key")
	assert.False(t, exists)
}

func TestSettingsService_Save_ErrorNamesKey(t *testing.T) {
	tests := []struct {
		failOn string
		want   string
	}{
		{"vision.provider", "save vision provider"},
		{"embedding.model", "save embedding model"},
		{"llm.base_url", "save llm base_url"},
		{"pipeline.chunk_size", "save pipeline.chunk_size"},
		{"answer.top_k", "save answer.top_k"},
	}

	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			store := &failingConfigStore{ConfigStore: memory.NewConfigStore(), failOn: tt.failOn}
			service := NewSettingsService(store, nil)
			settings := domain.DefaultAppSettings()

			err := service.Save(&settings)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSettingsService_SetVisionProvider(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	require.NoError(t, service.SetVisionProvider(domain.AIProviderOllama, "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Vision.Provider)
	assert.Equal(t, "llava", settings.Vision.Model)
	assert.Equal(t, domain.DefaultOllamaBaseURL, settings.Vision.BaseURL)
}

func TestSettingsService_SetVisionProvider_RejectsTextOnlyProvider(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	err := service.SetVisionProvider(domain.AIProviderAnthropic, "", "sk-ant")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support image input")
}

func TestSettingsService_SetEmbeddingProvider_OpenAI(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Empty(t, settings.Embedding.BaseURL)
}

func TestSettingsService_SetEmbeddingProvider_RequiresAPIKey(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	err := service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestSettingsService_SetEmbeddingProvider_UsesEnvironmentKey(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{"OPENAI_API_KEY": "sk-env"})

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	_, exists := store.Get("embedding.api_key")
	assert.False(t, exists)
}

func TestSettingsService_SetEmbeddingProvider_GeminiNotSupported(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	err := service.SetEmbeddingProvider(domain.AIProviderGemini, "", "key")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support embeddings")
}

func TestSettingsService_SetLLMProvider_PreservesLocalBaseURL(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("llm.provider", "ollama")
	_ = store.Set("llm.base_url", "http://gpu-box:11434")

	require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "mistral", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "mistral", settings.LLM.Model)
	assert.Equal(t, "http://gpu-box:11434", settings.LLM.BaseURL)
}

func TestSettingsService_SetLLMProvider_Invalid(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	assert.Error(t, service.SetLLMProvider(domain.AIProvider("cohere"), "", ""))
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("llm key missing", func(t *testing.T) {
		service, _ := newTestSettingsService(nil)
		assert.ErrorIs(t, service.Validate(), domain.ErrLLMUnavailable)
	})

	t.Run("llm key from environment", func(t *testing.T) {
		service, _ := newTestSettingsService(map[string]string{"GOOGLE_API_KEY": "g"})
		assert.NoError(t, service.Validate())
	})

	t.Run("embedding key missing", func(t *testing.T) {
		service, store := newTestSettingsService(map[string]string{"GOOGLE_API_KEY": "g"})
		_ = store.Set("embedding.provider", "openai")
		assert.ErrorIs(t, service.Validate(), domain.ErrEmbeddingUnavailable)
	})

	t.Run("overlap not smaller than size", func(t *testing.T) {
		service, store := newTestSettingsService(map[string]string{"GOOGLE_API_KEY": "g"})
		_ = store.Set("pipeline.chunk_size", 100)
		_ = store.Set("pipeline.chunk_overlap", 100)
		assert.ErrorIs(t, service.Validate(), domain.ErrInvalidInput)
	})
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

// failingConfigStore fails Set for one key, or for every key when failOn is empty.
type failingConfigStore struct {
	*memory.ConfigStore
	failOn string
}

func (f *failingConfigStore) Set(key string, value any) error {
	if f.failOn == "" || key == f.failOn {
		return assert.AnError
	}
	return f.ConfigStore.Set(key, value)
}

type mockAIConfigValidator struct {
	visionErr error
	embedErr  error
	llmErr    error
}

func (m *mockAIConfigValidator) ValidateVision(_ *domain.VisionSettings) error {
	return m.visionErr
}

func (m *mockAIConfigValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.embedErr
}

func (m *mockAIConfigValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

func TestSettingsService_ValidateConfig_NilValidator(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.NoError(t, service.ValidateVisionConfig())
	assert.NoError(t, service.ValidateEmbeddingConfig())
	assert.NoError(t, service.ValidateLLMConfig())
}

func TestSettingsService_ValidateConfig_PassesValidatorErrors(t *testing.T) {
	validator := &mockAIConfigValidator{
		visionErr: assert.AnError,
		llmErr:    assert.AnError,
	}
	service := NewSettingsService(memory.NewConfigStore(), validator)

	assert.ErrorIs(t, service.ValidateVisionConfig(), assert.AnError)
	assert.NoError(t, service.ValidateEmbeddingConfig())
	assert.ErrorIs(t, service.ValidateLLMConfig(), assert.AnError)
}
