// Package gemini provides a vision adapter using Gemini inline image parts.
package gemini

import (
	"context"
	"encoding/base64"
	"time"

	geminillm "github.com/custodia-labs/manualqa/internal/adapters/driven/llm/gemini"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure VisionService implements the interface.
var _ driven.VisionService = (*VisionService)(nil)

// DefaultTimeout bounds one image request.
const DefaultTimeout = 60 * time.Second

// Config holds configuration for the Gemini vision service.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// VisionService sends the prompt followed by the image.
type VisionService struct {
	client *geminillm.Client
}

// NewVisionService creates a new Gemini vision service.
func NewVisionService(cfg Config) (*VisionService, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	client, err := geminillm.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &VisionService{client: client}, nil
}

// Describe returns the model's raw reply about image.
func (s *VisionService) Describe(ctx context.Context, image driven.Image, prompt string) (string, error) {
	parts := []geminillm.Part{
		{Text: prompt},
		{InlineData: &geminillm.InlineData{
			MIMEType: image.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(image.Data),
		}},
	}
	return s.client.Generate(ctx, parts, nil)
}

// ModelName returns the vision model name.
func (s *VisionService) ModelName() string {
	return s.client.Model()
}

// Ping validates the key and model.
func (s *VisionService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close releases resources.
func (s *VisionService) Close() error {
	return nil
}
