// Package openai provides a vision adapter using OpenAI image input.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/ai/apiclient"
	openaillm "github.com/custodia-labs/manualqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure VisionService implements the interface.
var _ driven.VisionService = (*VisionService)(nil)

// Default configuration values.
const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second

	// maxReplyTokens covers the classification JSON with room to spare.
	maxReplyTokens = 300
)

// Config holds configuration for the OpenAI vision service.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// VisionService describes images through /chat/completions.
type VisionService struct {
	api   *apiclient.Client
	model string
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imagePart struct {
	Type     string `json:"type"`
	ImageURL struct {
		URL    string `json:"url"`
		Detail string `json:"detail,omitempty"`
	} `json:"image_url"`
}

// NewVisionService creates a new OpenAI vision service.
func NewVisionService(cfg Config) (*VisionService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &VisionService{
		api:   openaillm.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		model: cfg.Model,
	}, nil
}

// Describe sends the prompt and the image as a data URL in one user turn.
func (s *VisionService) Describe(ctx context.Context, image driven.Image, prompt string) (string, error) {
	img := imagePart{Type: "image_url"}
	img.ImageURL.URL = "data:" + image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
	img.ImageURL.Detail = "low"

	req := openaillm.ChatRequest{
		Model: s.model,
		Messages: []openaillm.ChatMessage{{
			Role:    "user",
			Content: []any{textPart{Type: "text", Text: prompt}, img},
		}},
		MaxTokens: maxReplyTokens,
	}

	var resp openaillm.ChatResponse
	if err := s.api.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	return resp.Text()
}

// ModelName returns the vision model name.
func (s *VisionService) ModelName() string {
	return s.model
}

// Ping lists models.
func (s *VisionService) Ping(ctx context.Context) error {
	if err := s.api.Get(ctx, "/models", nil); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *VisionService) Close() error {
	return nil
}
