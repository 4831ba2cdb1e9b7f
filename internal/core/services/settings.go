package services

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for scalar settings. Provider sections use
// "<section>.provider", ".model", ".base_url" and ".api_key".
const (
	keyVisionRPM       = "vision.rpm"
	keyDPI             = "pipeline.dpi"
	keyHashThreshold   = "pipeline.hash_threshold"
	keyClassifyBatch   = "pipeline.classify_batch"
	keyCooldownSeconds = "pipeline.cooldown_seconds"
	keyChunkSize       = "pipeline.chunk_size"
	keyChunkOverlap    = "pipeline.chunk_overlap"
	keyEmbedBatch      = "pipeline.embed_batch"
	keyMarkdownWords   = "markdown.chunk_words"
	keyMarkdownOverlap = "markdown.overlap_words"
	keyAnswerTopK      = "answer.top_k"
)

// SettingsService manages application settings.
// API keys missing from the config file are looked up in the environment,
// so a .env file loaded at start-up is enough for cloud providers.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// SetEnvLookup replaces os.Getenv for API key fallback.
func (s *SettingsService) SetEnvLookup(getenv func(string) string) {
	if getenv != nil {
		s.getenv = getenv
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Vision: domain.VisionSettings{
			ProviderSettings:  s.getProviderSettings("vision", defaults.Vision.ProviderSettings, domain.DefaultVisionModels()),
			RequestsPerMinute: s.getInt(keyVisionRPM, defaults.Vision.RequestsPerMinute),
		},
		Embedding: domain.EmbeddingSettings{
			ProviderSettings: s.getProviderSettings("embedding", defaults.Embedding.ProviderSettings, domain.DefaultEmbeddingModels()),
		},
		LLM: domain.LLMSettings{
			ProviderSettings: s.getProviderSettings("llm", defaults.LLM.ProviderSettings, domain.DefaultLLMModels()),
		},
		Pipeline: domain.PipelineSettings{
			DPI:           s.getPositive(keyDPI, defaults.Pipeline.DPI),
			HashThreshold: s.getInt(keyHashThreshold, defaults.Pipeline.HashThreshold),
			ClassifyBatch: s.getPositive(keyClassifyBatch, defaults.Pipeline.ClassifyBatch),
			Cooldown:      time.Duration(s.getInt(keyCooldownSeconds, int(defaults.Pipeline.Cooldown/time.Second))) * time.Second,
			ChunkSize:     s.getPositive(keyChunkSize, defaults.Pipeline.ChunkSize),
			ChunkOverlap:  s.getInt(keyChunkOverlap, defaults.Pipeline.ChunkOverlap),
			EmbedBatch:    s.getPositive(keyEmbedBatch, defaults.Pipeline.EmbedBatch),
		},
		Markdown: domain.MarkdownSettings{
			ChunkWords:   s.getPositive(keyMarkdownWords, defaults.Markdown.ChunkWords),
			OverlapWords: s.getInt(keyMarkdownOverlap, defaults.Markdown.OverlapWords),
		},
		Answer: domain.AnswerSettings{
			TopK: s.getPositive(keyAnswerTopK, defaults.Answer.TopK),
		},
	}

	return settings, nil
}

// Save persists application settings.
// API keys are only written when set, so environment-provided keys never
// end up in the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.saveProvider("vision", settings.Vision.ProviderSettings); err != nil {
		return err
	}
	if err := s.saveProvider("embedding", settings.Embedding.ProviderSettings); err != nil {
		return err
	}
	if err := s.saveProvider("llm", settings.LLM.ProviderSettings); err != nil {
		return err
	}

	values := []struct {
		key   string
		value int
	}{
		{keyVisionRPM, settings.Vision.RequestsPerMinute},
		{keyDPI, settings.Pipeline.DPI},
		{keyHashThreshold, settings.Pipeline.HashThreshold},
		{keyClassifyBatch, settings.Pipeline.ClassifyBatch},
		{keyCooldownSeconds, int(settings.Pipeline.Cooldown / time.Second)},
		{keyChunkSize, settings.Pipeline.ChunkSize},
		{keyChunkOverlap, settings.Pipeline.ChunkOverlap},
		{keyEmbedBatch, settings.Pipeline.EmbedBatch},
		{keyMarkdownWords, settings.Markdown.ChunkWords},
		{keyMarkdownOverlap, settings.Markdown.OverlapWords},
		{keyAnswerTopK, settings.Answer.TopK},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

func (s *SettingsService) saveProvider(section string, p domain.ProviderSettings) error {
	if err := s.configStore.Set(section+".provider", p.Provider.String()); err != nil {
		return fmt.Errorf("save %s provider: %w", section, err)
	}
	if err := s.configStore.Set(section+".model", p.Model); err != nil {
		return fmt.Errorf("save %s model: %w", section, err)
	}
	if err := s.configStore.Set(section+".base_url", p.BaseURL); err != nil {
		return fmt.Errorf("save %s base_url: %w", section, err)
	}
	if p.APIKey != "" && p.APIKey != s.envKey(p.Provider) {
		if err := s.configStore.Set(section+".api_key", p.APIKey); err != nil {
			return fmt.Errorf("save %s api_key: %w", section, err)
		}
	}
	return nil
}

// SetVisionProvider configures the vision provider used for icon classification.
func (s *SettingsService) SetVisionProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid vision provider: %s", provider)
	}
	if !slices.Contains(domain.AllVisionProviders(), provider) {
		return fmt.Errorf("provider %s does not support image input", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	p, err := s.configureProvider(settings.Vision.ProviderSettings, provider, model, apiKey, domain.DefaultVisionModels())
	if err != nil {
		return err
	}
	settings.Vision.ProviderSettings = p
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
// Changing it invalidates existing knowledge bases, which must be re-ingested.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	p, err := s.configureProvider(settings.Embedding.ProviderSettings, provider, model, apiKey, domain.DefaultEmbeddingModels())
	if err != nil {
		return err
	}
	settings.Embedding.ProviderSettings = p
	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	p, err := s.configureProvider(settings.LLM.ProviderSettings, provider, model, apiKey, domain.DefaultLLMModels())
	if err != nil {
		return err
	}
	settings.LLM.ProviderSettings = p
	return s.Save(settings)
}

// configureProvider applies a provider change on top of the current settings.
func (s *SettingsService) configureProvider(
	current domain.ProviderSettings,
	provider domain.AIProvider,
	model, apiKey string,
	defaultModels map[domain.AIProvider]string,
) (domain.ProviderSettings, error) {
	if apiKey == "" {
		apiKey = s.envKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return current, fmt.Errorf("API key required for %s (or set %s)", provider, provider.APIKeyEnv())
	}

	p := domain.ProviderSettings{Provider: provider, Model: model, APIKey: apiKey}
	if p.Model == "" {
		p.Model = defaultModels[provider]
	}

	// Local providers need a base URL; cloud providers use their public endpoint.
	if provider.IsLocal() {
		p.BaseURL = current.BaseURL
		if p.BaseURL == "" || !current.Provider.IsLocal() {
			p.BaseURL = domain.DefaultOllamaBaseURL
		}
	}
	return p, nil
}

// Validate checks that ingestion and answering can run with current settings.
// Vision is optional: without it icons are skipped.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured: %w",
			settings.Embedding.Provider, domain.ErrEmbeddingUnavailable)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured: %w",
			settings.LLM.Provider, domain.ErrLLMUnavailable)
	}
	if settings.Pipeline.ChunkOverlap >= settings.Pipeline.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d: %w",
			settings.Pipeline.ChunkOverlap, settings.Pipeline.ChunkSize, domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateVisionConfig validates the current vision configuration by pinging the provider.
func (s *SettingsService) ValidateVisionConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateVision(&settings.Vision)
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getProviderSettings(
	section string,
	defaults domain.ProviderSettings,
	models map[domain.AIProvider]string,
) domain.ProviderSettings {
	p := domain.ProviderSettings{
		Provider: s.getProvider(section+".provider", defaults.Provider),
		BaseURL:  s.configStore.GetString(section + ".base_url"), // empty is valid for cloud providers
		APIKey:   s.configStore.GetString(section + ".api_key"),
	}
	p.Model = s.configStore.GetString(section + ".model")
	if p.Model == "" {
		p.Model = models[p.Provider]
		if p.Provider == defaults.Provider {
			p.Model = defaults.Model
		}
	}
	if p.Provider.IsLocal() && p.BaseURL == "" {
		p.BaseURL = domain.DefaultOllamaBaseURL
	}
	if p.APIKey == "" {
		p.APIKey = s.envKey(p.Provider)
	}
	return p
}

func (s *SettingsService) envKey(provider domain.AIProvider) string {
	name := provider.APIKeyEnv()
	if name == "" {
		return ""
	}
	return s.getenv(name)
}

// getInt returns the stored value when the key exists, so zero can be configured.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	val := s.configStore.GetInt(key)
	if val < 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getPositive(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
