// Package answer turns a question and a manual's knowledge base into a
// grounded, intent-styled answer.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Retriever ranks knowledge base chunks against a query.
// *vectorstore.Store satisfies it.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]domain.SearchHit, error)
}

// IconSource is implemented by retrievers that also hold the manual's icon
// vocabulary. Meanings of icon tokens found in retrieved chunks are added
// to the answer prompt.
type IconSource interface {
	Icons() []domain.IconToken
}

// Option configures an Engine.
type Option func(*Engine)

// WithTopK sets how many chunks are passed to the model as context.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithMetrics records model calls and answered questions.
func WithMetrics(m driven.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine classifies questions and answers them from retrieved chunks.
type Engine struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	metrics     driven.Metrics
	topK        int
}

// Ensure Engine accepts a prompt store.
var _ driven.PromptStoreAware = (*Engine)(nil)

// NewEngine creates an engine backed by llm.
func NewEngine(llm driven.LLMService, opts ...Option) *Engine {
	e := &Engine{
		llm:  llm,
		topK: domain.DefaultTopK,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (e *Engine) SetPromptStore(store driven.PromptStore) {
	e.promptStore = store
}

// TopK returns the number of chunks retrieved per question.
func (e *Engine) TopK() int {
	return e.topK
}

// ClassifyIntent asks the model for the question's intent. Failures and
// replies outside the taxonomy yield IntentExplanation.
func (e *Engine) ClassifyIntent(ctx context.Context, question string) domain.Intent {
	if e.llm == nil {
		return domain.IntentExplanation
	}
	prompt := fmt.Sprintf(e.loadPrompt(driven.PromptIntent, defaultIntentPrompt), question)

	reply, err := e.generate(ctx, prompt, driven.GenerateOptions{MaxTokens: 10})
	if err != nil {
		logger.Warn("Intent classification failed: %v", err)
		return domain.IntentExplanation
	}
	intent := domain.ParseIntent(reply)
	logger.Debug("Intent: %s (reply %q)", intent, reply)
	return intent
}

// Answer classifies the question, retrieves the most similar chunks from
// store and asks the model for an answer grounded in them. A nil store
// returns domain.NoManualMessage without calling any model.
func (e *Engine) Answer(ctx context.Context, store Retriever, question string) (*domain.Answer, error) {
	if store == nil {
		return &domain.Answer{Answer: domain.NoManualMessage}, nil
	}
	if e.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	start := time.Now()
	logger.Section("Answer")
	logger.Debug("Question: %q", question)

	intent := e.ClassifyIntent(ctx, question)

	hits, err := store.Search(ctx, question, e.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve chunks: %w", err)
	}
	logger.Debug("Retrieved %d chunks", len(hits))

	var icons []domain.IconToken
	if src, ok := store.(IconSource); ok {
		icons = src.Icons()
	}

	prompt := e.BuildPrompt(question, hits, icons, intent)
	reply, err := e.generate(ctx, prompt, driven.GenerateOptions{Temperature: 0.3})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	if e.metrics != nil {
		e.metrics.ObserveQuestion(intent.String(), time.Since(start))
	}
	return &domain.Answer{Intent: intent, Answer: reply, Chunks: hits}, nil
}

// BuildPrompt renders the answer prompt: question, retrieved chunk texts
// (one per line, rank order) followed by the glossary of their icon tokens,
// and the intent's style instruction.
func (e *Engine) BuildPrompt(question string, hits []domain.SearchHit, icons []domain.IconToken, intent domain.Intent) string {
	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Text)
	}
	sections := strings.Join(texts, "\n")
	if g := Glossary(hits, icons); g != "" {
		sections += "\n\n" + g
	}
	tmpl := e.loadPrompt(driven.PromptAnswer, defaultAnswerPrompt)
	return fmt.Sprintf(tmpl, question, sections, intent.Style())
}

// Glossary lists the meaning of every icon token that occurs in hits, in
// vocabulary order. It is empty when no hit contains a known token.
func Glossary(hits []domain.SearchHit, icons []domain.IconToken) string {
	var b strings.Builder
	for _, icon := range icons {
		if !containsToken(hits, icon.Token) {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("Icon meanings:")
		}
		meaning := icon.Meaning
		if icon.Description != "" {
			meaning += " (" + icon.Description + ")"
		}
		fmt.Fprintf(&b, "\n%s: %s", icon.Token, meaning)
	}
	return b.String()
}

func containsToken(hits []domain.SearchHit, token string) bool {
	for _, h := range hits {
		if strings.Contains(h.Text, token) {
			return true
		}
	}
	return false
}

func (e *Engine) generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	reply, err := e.llm.Generate(ctx, prompt, opts)
	if e.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		e.metrics.CountModelCall("llm", outcome)
	}
	return reply, err
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (e *Engine) loadPrompt(name, fallback string) string {
	if e.promptStore == nil {
		return fallback
	}
	prompt, err := e.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// defaultIntentPrompt is the fallback prompt when no PromptStore is configured.
const defaultIntentPrompt = `You are an intent classifier for a question-answering system about product manuals.
Classify the question into ONE of the following categories:
- instruction (how to use or operate something)
- setup (installation, configuration, connection)
- diagnosis (problem solving, errors, troubleshooting)
- maintenance (cleaning, replacing, servicing, schedule)
- explanation (meaning or purpose of something)
- safety (warnings, dangers, prohibited actions)

Question: "%s"

Respond with only one category name.`

// defaultAnswerPrompt is the fallback prompt when no PromptStore is configured.
const defaultAnswerPrompt = `You are a helpful assistant answering based ONLY on the user manual below.

The manual includes icon tokens like <icon:ground_coffee_button>.
These tokens represent user-interface symbols. If the question is about an icon, explain its meaning.

Question:
%s

Relevant manual sections:
%s

%s
Answer clearly and ONLY using the manual content.`

// DefaultPrompts returns the built-in prompt templates keyed by prompt name.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptIntent: defaultIntentPrompt,
		driven.PromptAnswer: defaultAnswerPrompt,
	}
}
