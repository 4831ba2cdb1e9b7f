package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type the ingest pipeline cannot handle.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrPDFUnreadable indicates the source PDF is missing, corrupt or cannot be opened.
	ErrPDFUnreadable = errors.New("pdf unreadable")

	// ErrIngestInProgress indicates another ingest is writing to the same manual directory.
	ErrIngestInProgress = errors.New("ingest in progress")

	// ErrKnowledgeNotFound indicates the embedded chunk artifact required for answering is missing.
	ErrKnowledgeNotFound = errors.New("knowledge base not found")

	// ErrNoActiveManual indicates no manual has been loaded for answering.
	ErrNoActiveManual = errors.New("no active manual")

	// Provider Errors.

	// ErrVisionUnavailable indicates the vision model is not configured.
	// Icon classification is skipped without it.
	ErrVisionUnavailable = errors.New("vision service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Question answering is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Neither ingestion nor retrieval can run without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
