// Package gemini provides an LLM service adapter using the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/ai/apiclient"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Google AI Studio key (required).
	APIKey string

	// BaseURL is the API base URL (default: the public v1beta endpoint).
	BaseURL string

	// Model is the model name (default: gemini-2.0-flash).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Part is one piece of a content turn: text or inline data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData is a base64-encoded blob.
type InlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Content is one conversation turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig tunes sampling.
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

// GenerateRequest is the :generateContent request body.
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// GenerateResponse is the :generateContent response body.
type GenerateResponse struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Text concatenates the text parts of the first candidate.
func (r GenerateResponse) Text() (string, error) {
	if len(r.Candidates) == 0 {
		if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini: prompt blocked: %s", r.PromptFeedback.BlockReason)
		}
		return "", errors.New("gemini: no candidates returned")
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

// Client is a Gemini model endpoint.
type Client struct {
	api   *apiclient.Client
	model string
}

// NewClient creates a client for one model. The vision adapter shares it.
func NewClient(apiKey, baseURL, model string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		api:   apiclient.New("gemini", baseURL, timeout, apiclient.WithHeader("x-goog-api-key", apiKey)),
		model: model,
	}, nil
}

// Model returns the model name.
func (c *Client) Model() string {
	return c.model
}

// Generate sends one user turn built from parts.
func (c *Client) Generate(ctx context.Context, parts []Part, cfg *GenerationConfig) (string, error) {
	req := GenerateRequest{
		Contents:         []Content{{Role: "user", Parts: parts}},
		GenerationConfig: cfg,
	}
	var resp GenerateResponse
	if err := c.api.PostJSON(ctx, "/models/"+c.model+":generateContent", req, &resp); err != nil {
		return "", err
	}
	return resp.Text()
}

// Ping fetches the model metadata, which validates the key and the model name.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.api.Get(ctx, "/models/"+c.model, nil); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// LLMService answers text prompts with Gemini.
type LLMService struct {
	client *Client
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	client, err := NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &LLMService{client: client}, nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	cfg := &GenerationConfig{
		MaxOutputTokens: opts.MaxTokens,
		StopSequences:   opts.StopWords,
	}
	if opts.Temperature > 0 {
		cfg.Temperature = &opts.Temperature
	}
	return s.client.Generate(ctx, []Part{{Text: prompt}}, cfg)
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.client.Model()
}

// Ping validates the key and model.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
