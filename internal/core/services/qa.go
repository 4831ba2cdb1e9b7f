package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/custodia-labs/manualqa/internal/answer"
	"github.com/custodia-labs/manualqa/internal/artifact"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/icons/tokenizer"
	"github.com/custodia-labs/manualqa/internal/logger"
	"github.com/custodia-labs/manualqa/internal/vectorstore"
)

// Ensure QAService implements the interface.
var _ driving.QAService = (*QAService)(nil)

var _ answer.IconSource = (*activeManual)(nil)

// activeManual pairs a manual with its loaded knowledge base and icon
// vocabulary.
type activeManual struct {
	manual domain.Manual
	store  *vectorstore.Store
	icons  []domain.IconToken
}

func (a *activeManual) Search(ctx context.Context, query string, topK int) ([]domain.SearchHit, error) {
	return a.store.Search(ctx, query, topK)
}

func (a *activeManual) Icons() []domain.IconToken {
	return a.icons
}

// QAService answers questions against the active manual.
//
// The active manual is published through an atomic pointer. A replacement
// store is fully loaded before it is swapped in, and every request reads
// the pointer once, so in-flight requests finish against the store they
// started with.
type QAService struct {
	engine   *answer.Engine
	embedder driven.EmbeddingService
	active   atomic.Pointer[activeManual]
}

// NewQAService creates a QA service. The embedder is used to load knowledge
// bases and must match the model they were built with.
func NewQAService(engine *answer.Engine, embedder driven.EmbeddingService) *QAService {
	return &QAService{
		engine:   engine,
		embedder: embedder,
	}
}

// Load reads the manual's knowledge base and, once complete, makes it active.
// On error the previously active manual stays in place.
func (s *QAService) Load(ctx context.Context, manual domain.Manual) error {
	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	defer logger.Timer("load " + manual.Name)()
	store, err := vectorstore.Load(ctx, manual.KnowledgePath(), s.embedder)
	if err != nil {
		return fmt.Errorf("load manual %s: %w", manual.Name, err)
	}
	s.publish(&activeManual{manual: manual, store: store, icons: loadVocabulary(manual)})
	return nil
}

// Activate publishes an already loaded store without an icon vocabulary.
func (s *QAService) Activate(manual domain.Manual, store *vectorstore.Store) {
	s.publish(&activeManual{manual: manual, store: store})
}

func (s *QAService) publish(a *activeManual) {
	s.active.Store(a)
	logger.Info("Active manual: %s (%d chunks, %d icons)", a.manual.Name, a.store.Len(), len(a.icons))
}

// loadVocabulary reads the manual's icon tokens. Manuals without icons, or
// with an unreadable token file, answer without a glossary.
func loadVocabulary(manual domain.Manual) []domain.IconToken {
	var tokens []domain.IconToken
	err := artifact.ReadJSON(filepath.Join(manual.Dir, domain.IconTokensFile), &tokens)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Icon glossary unavailable for %s: %v", manual.Name, err)
		}
		return nil
	}
	return tokenizer.Vocabulary(tokens)
}

// Deactivate clears the active manual.
func (s *QAService) Deactivate() {
	s.active.Store(nil)
}

// Ask classifies, retrieves and answers. With no active manual it returns
// domain.NoManualMessage without calling any model.
func (s *QAService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}

	a := s.active.Load()
	if a == nil {
		return s.engine.Answer(ctx, nil, question)
	}
	return s.engine.Answer(ctx, a, question)
}

// Search returns the topK most similar chunks of the active manual.
func (s *QAService) Search(ctx context.Context, query string, topK int) ([]domain.SearchHit, error) {
	a := s.active.Load()
	if a == nil {
		return nil, domain.ErrNoActiveManual
	}
	if topK <= 0 {
		topK = s.engine.TopK()
	}
	return a.store.Search(ctx, query, topK)
}

// ActiveManual returns the manual currently used for answering, or nil.
func (s *QAService) ActiveManual() *domain.Manual {
	a := s.active.Load()
	if a == nil {
		return nil
	}
	m := a.manual
	return &m
}
