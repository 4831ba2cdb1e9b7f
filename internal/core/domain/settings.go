package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for vision, embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// APIKeyEnv returns the environment variable consulted when no API key is
// configured, or "" for providers that need none.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case AIProviderGemini:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// ProviderSettings holds the connection details shared by every AI capability.
type ProviderSettings struct {
	// Provider is the service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string
}

// IsConfigured returns true if the provider is set up.
func (s ProviderSettings) IsConfigured() bool {
	if !s.Provider.IsValid() {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// VisionSettings holds the vision model used for icon classification.
type VisionSettings struct {
	ProviderSettings

	// RequestsPerMinute paces vision requests. Zero disables pacing.
	RequestsPerMinute int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	ProviderSettings
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	ProviderSettings
}

// PipelineSettings holds ingestion tunables.
type PipelineSettings struct {
	// DPI is the page rasterisation resolution.
	DPI int

	// HashThreshold is the maximum perceptual-hash distance for two crops to share a cluster.
	HashThreshold int

	// ClassifyBatch is the number of clusters classified between cooldowns.
	ClassifyBatch int

	// Cooldown is the blocking pause after each classification batch.
	Cooldown time.Duration

	// ChunkSize is the chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters carried into the next chunk.
	ChunkOverlap int

	// EmbedBatch is the number of chunks embedded per request.
	EmbedBatch int
}

// MarkdownSettings holds the word-window chunker configuration for markdown manuals.
type MarkdownSettings struct {
	ChunkWords   int
	OverlapWords int
}

// AnswerSettings holds retrieval configuration for question answering.
type AnswerSettings struct {
	// TopK is the number of chunks passed to the LLM as context.
	TopK int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Vision    VisionSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Pipeline  PipelineSettings
	Markdown  MarkdownSettings
	Answer    AnswerSettings
}

// Default tunables.
const (
	DefaultDPI              = 200
	DefaultHashThreshold    = 5
	DefaultClassifyBatch    = 10
	DefaultCooldown         = 10 * time.Second
	DefaultChunkSize        = 1200
	DefaultChunkOverlap     = 250
	DefaultEmbedBatch       = 4
	DefaultTopK             = 5
	DefaultMarkdownWords    = 1000
	DefaultMarkdownOverlap  = 200
	DefaultVisionRPM        = 15
	DefaultGeminiModel      = "gemini-2.0-flash"
	DefaultLocalEmbedModel  = "all-minilm"
	DefaultOllamaBaseURL    = "http://localhost:11434"
	defaultOpenAIEmbedModel = "text-embedding-3-small"
)

// DefaultAppSettings returns settings with sensible defaults.
// Gemini needs an API key before vision and answering are usable;
// embeddings default to a local Ollama MiniLM model.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Vision: VisionSettings{
			ProviderSettings: ProviderSettings{
				Provider: AIProviderGemini,
				Model:    DefaultGeminiModel,
			},
			RequestsPerMinute: DefaultVisionRPM,
		},
		Embedding: EmbeddingSettings{
			ProviderSettings: ProviderSettings{
				Provider: AIProviderOllama,
				Model:    DefaultLocalEmbedModel,
				BaseURL:  DefaultOllamaBaseURL,
			},
		},
		LLM: LLMSettings{
			ProviderSettings: ProviderSettings{
				Provider: AIProviderGemini,
				Model:    DefaultGeminiModel,
			},
		},
		Pipeline: DefaultPipelineSettings(),
		Markdown: MarkdownSettings{
			ChunkWords:   DefaultMarkdownWords,
			OverlapWords: DefaultMarkdownOverlap,
		},
		Answer: AnswerSettings{TopK: DefaultTopK},
	}
}

// DefaultPipelineSettings returns the default ingestion tunables.
func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		DPI:           DefaultDPI,
		HashThreshold: DefaultHashThreshold,
		ClassifyBatch: DefaultClassifyBatch,
		Cooldown:      DefaultCooldown,
		ChunkSize:     DefaultChunkSize,
		ChunkOverlap:  DefaultChunkOverlap,
		EmbedBatch:    DefaultEmbedBatch,
	}
}

// AllVisionProviders returns providers that accept image input.
func AllVisionProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOpenAI,
		AIProviderOllama,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: DefaultLocalEmbedModel,
		AIProviderOpenAI: defaultOpenAIEmbedModel,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini:    DefaultGeminiModel,
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// DefaultVisionModels returns default models for each vision provider.
func DefaultVisionModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: DefaultGeminiModel,
		AIProviderOpenAI: "gpt-4o-mini",
		AIProviderOllama: "llava",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"all-minilm":        384,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
