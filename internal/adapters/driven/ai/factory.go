// Package ai provides factory functions for creating model provider adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/manualqa/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/manualqa/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/manualqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/manualqa/internal/adapters/driven/llm/openai"
	geminivision "github.com/custodia-labs/manualqa/internal/adapters/driven/vision/gemini"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/vision/guard"
	ollamavision "github.com/custodia-labs/manualqa/internal/adapters/driven/vision/ollama"
	openaivision "github.com/custodia-labs/manualqa/internal/adapters/driven/vision/openai"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// settingsHint is appended to configuration errors.
const settingsHint = "Run 'manualqa settings set' to fix"

// Services holds the model adapters built from settings.
// Any field may be nil when its provider is unconfigured or unreachable.
type Services struct {
	Vision    driven.VisionService
	Embedding driven.EmbeddingService
	LLM       driven.LLMService

	// Warnings lists non-fatal problems, one per missing service.
	Warnings []string
}

// Close releases all services.
func (s *Services) Close() {
	if s.Vision != nil {
		s.Vision.Close()
	}
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// Init builds every service from settings. Services that cannot be created
// or reached are left nil and reported in Warnings. With validate false no
// connectivity check is made.
func Init(settings domain.AppSettings, validate bool) *Services {
	s := &Services{}
	var err error

	if validate {
		s.Embedding, err = CreateAndValidateEmbeddingService(&settings.Embedding)
	} else {
		s.Embedding, err = CreateEmbeddingService(&settings.Embedding)
	}
	if err != nil {
		s.Warnings = append(s.Warnings, err.Error())
	}

	if validate {
		s.LLM, err = CreateAndValidateLLMService(&settings.LLM)
	} else {
		s.LLM, err = CreateLLMService(&settings.LLM)
	}
	if err != nil {
		s.Warnings = append(s.Warnings, err.Error())
	}

	// Vision is only needed during ingest; it is validated lazily by the guard.
	s.Vision, err = CreateVisionService(&settings.Vision)
	if err != nil {
		s.Warnings = append(s.Warnings, err.Error())
	}
	return s
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
	}
	if svc == nil {
		return nil, nil
	}
	if err := ping(svc.Ping); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, settingsHint)
	}
	if svc == nil {
		return nil, nil
	}
	if err := ping(svc.Ping); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, settingsHint)
	}
	return svc, nil
}

// ValidateVisionConfig creates a vision service and pings it.
func ValidateVisionConfig(settings *domain.VisionSettings) error {
	svc, err := CreateVisionService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc.Ping)
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc.Ping)
}

// ValidateLLMConfig creates an LLM service and pings it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc.Ping)
}

func ping(fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return fn(ctx)
}

// CreateVisionService creates the vision adapter for settings, wrapped in a
// pacing circuit-breaker guard. Returns nil if the provider is not configured.
func CreateVisionService(settings *domain.VisionSettings) (driven.VisionService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.VisionService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderGemini:
		svc, err = geminivision.NewVisionService(geminivision.Config{
			APIKey: settings.APIKey, BaseURL: settings.BaseURL, Model: settings.Model,
		})
	case domain.AIProviderOpenAI:
		svc, err = openaivision.NewVisionService(openaivision.Config{
			APIKey: settings.APIKey, BaseURL: settings.BaseURL, Model: settings.Model,
		})
	case domain.AIProviderOllama:
		svc = ollamavision.NewVisionService(ollamavision.Config{
			BaseURL: settings.BaseURL, Model: settings.Model,
		})
	default:
		return nil, fmt.Errorf("%s does not accept images, use gemini, openai or ollama", settings.Provider)
	}
	if err != nil {
		return nil, err
	}
	return guard.New(svc, guard.Config{RequestsPerMinute: settings.RequestsPerMinute}), nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	dimensions := domain.EmbeddingDimensions()[settings.Model]
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%s does not support embeddings, use ollama or openai", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderGemini:
		svc, err = geminillm.NewLLMService(geminillm.Config{
			APIKey: settings.APIKey, BaseURL: settings.BaseURL, Model: settings.Model,
		})

	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL, Model: settings.Model,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey: settings.APIKey, BaseURL: settings.BaseURL, Model: settings.Model,
		})

	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey: settings.APIKey, BaseURL: settings.BaseURL, Model: settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}
