// Package ollama provides a vision adapter for multimodal Ollama models such as llava.
package ollama

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/ai/apiclient"
	ollamallm "github.com/custodia-labs/manualqa/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure VisionService implements the interface.
var _ driven.VisionService = (*VisionService)(nil)

// Default configuration values.
const (
	DefaultModel   = "llava"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Ollama vision service.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// VisionService describes images through /api/generate.
type VisionService struct {
	api   *apiclient.Client
	model string
}

// NewVisionService creates a new Ollama vision service.
func NewVisionService(cfg Config) *VisionService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &VisionService{
		api:   ollamallm.NewClient(cfg.BaseURL, cfg.Timeout),
		model: cfg.Model,
	}
}

// Describe returns the model's raw reply about image.
func (s *VisionService) Describe(ctx context.Context, image driven.Image, prompt string) (string, error) {
	req := ollamallm.GenerateRequest{
		Model:  s.model,
		Prompt: prompt,
		Images: []string{base64.StdEncoding.EncodeToString(image.Data)},
	}
	var resp ollamallm.GenerateResponse
	if err := s.api.PostJSON(ctx, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// ModelName returns the vision model name.
func (s *VisionService) ModelName() string {
	return s.model
}

// Ping validates the server is reachable.
func (s *VisionService) Ping(ctx context.Context) error {
	return ollamallm.Ping(ctx, s.api)
}

// Close releases resources.
func (s *VisionService) Close() error {
	return nil
}
