// Package classifier asks a vision model what each icon cluster means.
//
// Only a cluster's representative is examined. A cheap pixel heuristic
// rejects text fragments first; survivors get a one-word ICON/TEXT/NOISE
// verdict and, if accepted, a JSON classification. Model failures never
// abort the run: a failed verdict drops the cluster and a failed
// classification yields a placeholder record.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Sleeper blocks for the given duration.
type Sleeper func(time.Duration)

// Option configures a Classifier.
type Option func(*Classifier)

// WithBatchSize sets how many clusters are processed between cooldowns.
func WithBatchSize(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithCooldown sets the pause after each batch.
func WithCooldown(d time.Duration) Option {
	return func(c *Classifier) {
		if d >= 0 {
			c.cooldown = d
		}
	}
}

// WithSleeper replaces time.Sleep, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(c *Classifier) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithMetrics records model calls and icon counts.
func WithMetrics(m driven.Metrics) Option {
	return func(c *Classifier) {
		c.metrics = m
	}
}

// WithTextFilter replaces the LooksLikeText heuristic.
func WithTextFilter(f func(path string) bool) Option {
	return func(c *Classifier) {
		if f != nil {
			c.looksLikeText = f
		}
	}
}

// Classifier labels icon clusters through a vision model.
type Classifier struct {
	vision        driven.VisionService
	promptStore   driven.PromptStore
	metrics       driven.Metrics
	batchSize     int
	cooldown      time.Duration
	sleep         Sleeper
	looksLikeText func(path string) bool
}

// Ensure Classifier accepts a prompt store.
var _ driven.PromptStoreAware = (*Classifier)(nil)

// New creates a classifier backed by the given vision service.
func New(vision driven.VisionService, opts ...Option) *Classifier {
	c := &Classifier{
		vision:        vision,
		batchSize:     domain.DefaultClassifyBatch,
		cooldown:      domain.DefaultCooldown,
		sleep:         time.Sleep,
		looksLikeText: LooksLikeText,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (c *Classifier) SetPromptStore(store driven.PromptStore) {
	c.promptStore = store
}

// Classify examines the representative of every cluster and returns the
// accepted classifications in cluster order. ClusterID is the index into
// clusters. The only error returned is context cancellation.
func (c *Classifier) Classify(ctx context.Context, clusters []domain.IconCluster) ([]domain.IconClassification, error) {
	detectPrompt := c.loadPrompt(driven.PromptIconDetect, defaultDetectPrompt)
	classifyPrompt := c.loadPrompt(driven.PromptIconClassify, defaultClassifyPrompt)

	results := make([]domain.IconClassification, 0)
	rejected := 0

	for start := 0; start < len(clusters); start += c.batchSize {
		end := min(start+c.batchSize, len(clusters))
		logger.Debug("classifier: batch %d (%d clusters)", start/c.batchSize+1, end-start)

		for id := start; id < end; id++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rec, ok := c.classifyOne(ctx, id, clusters[id].Representative(), detectPrompt, classifyPrompt)
			if !ok {
				rejected++
				continue
			}
			results = append(results, rec)
		}

		logger.Debug("classifier: cooldown %s", c.cooldown)
		c.sleep(c.cooldown)
	}

	if c.metrics != nil {
		c.metrics.AddIcons("classified", len(results))
		c.metrics.AddIcons("rejected", rejected)
	}
	return results, nil
}

func (c *Classifier) classifyOne(ctx context.Context, id int, path, detectPrompt, classifyPrompt string) (domain.IconClassification, bool) {
	if path == "" || c.looksLikeText(path) {
		return domain.IconClassification{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("classifier: read %s: %v", path, err)
		return domain.IconClassification{}, false
	}
	img := driven.Image{Data: data, MIMEType: "image/png"}

	reply, err := c.describe(ctx, img, detectPrompt)
	if err != nil {
		logger.Debug("classifier: detect %s failed: %v", path, err)
		return domain.IconClassification{}, false
	}
	if domain.ParseIconKind(reply) != domain.IconKindIcon {
		return domain.IconClassification{}, false
	}

	reply, err = c.describe(ctx, img, classifyPrompt)
	if err != nil {
		logger.Debug("classifier: classify %s failed: %v", path, err)
		return domain.PlaceholderClassification(id, path), true
	}
	rec, err := ParseClassification(reply)
	if err != nil {
		logger.Debug("classifier: %s: %v", path, err)
		return domain.PlaceholderClassification(id, path), true
	}
	rec.ClusterID = id
	rec.Path = path
	return rec, true
}

func (c *Classifier) describe(ctx context.Context, img driven.Image, prompt string) (string, error) {
	reply, err := c.vision.Describe(ctx, img, prompt)
	if c.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.metrics.CountModelCall("vision", outcome)
	}
	return reply, err
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (c *Classifier) loadPrompt(name, fallback string) string {
	if c.promptStore == nil {
		return fallback
	}
	prompt, err := c.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// classificationReply is the JSON object the classify prompt asks for.
// Pointer fields distinguish missing keys from empty values.
type classificationReply struct {
	Label       *string     `json:"label"`
	Meaning     *string     `json:"meaning"`
	Description *string     `json:"description"`
	Confidence  *confidence `json:"confidence"`
}

// confidence accepts a JSON number or a numeric string.
type confidence float64

func (c *confidence) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*c = confidence(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("confidence: %w", err)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("confidence: %w", err)
	}
	*c = confidence(f)
	return nil
}

// ParseClassification decodes a classify reply. Code fences and text
// around the JSON object are ignored. Missing fields take the defaults
// "unknown", "unknown", "" and 0; confidence is clamped to [0, 1].
func ParseClassification(reply string) (domain.IconClassification, error) {
	body := stripFences(reply)
	if i, j := strings.Index(body, "{"), strings.LastIndex(body, "}"); i >= 0 && j > i {
		body = body[i : j+1]
	}

	var r classificationReply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return domain.IconClassification{}, fmt.Errorf("decode classification: %w", err)
	}

	rec := domain.IconClassification{
		Label:   domain.UnknownLabel,
		Meaning: domain.UnknownLabel,
	}
	if r.Label != nil {
		rec.Label = *r.Label
	}
	if r.Meaning != nil {
		rec.Meaning = *r.Meaning
	}
	if r.Description != nil {
		rec.Description = *r.Description
	}
	if r.Confidence != nil && !math.IsNaN(float64(*r.Confidence)) {
		rec.Confidence = min(max(float64(*r.Confidence), 0), 1)
	}
	return rec, nil
}

// stripFences removes a surrounding markdown code fence, with or without
// a language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// defaultDetectPrompt is the fallback prompt when no PromptStore is configured.
const defaultDetectPrompt = `You must determine if the image is a REAL appliance icon
or just TEXT/NOISE.

Output ONLY one word:
ICON
TEXT
NOISE`

// defaultClassifyPrompt is the fallback prompt when no PromptStore is configured.
const defaultClassifyPrompt = `You are a domain expert for appliance manuals.
Classify ONLY REAL appliance icons.

Return STRICT JSON:
{
  "label": "...",
  "meaning": "...",
  "description": "...",
  "confidence": 0.0
}`

// DefaultPrompts returns the built-in prompt templates keyed by prompt name.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptIconDetect:   defaultDetectPrompt,
		driven.PromptIconClassify: defaultClassifyPrompt,
	}
}
