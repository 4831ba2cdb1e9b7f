package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// ManualKind identifies the source format of a manual.
type ManualKind string

// Supported manual formats.
const (
	ManualKindPDF      ManualKind = "pdf"
	ManualKindMarkdown ManualKind = "markdown"
)

// ManualKindFromPath infers the manual format from a file extension.
func ManualKindFromPath(path string) (ManualKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return ManualKindPDF, true
	case ".md", ".markdown":
		return ManualKindMarkdown, true
	default:
		return "", false
	}
}

// ManualStatus is the lifecycle state of a registered manual.
type ManualStatus string

// Manual lifecycle states.
const (
	ManualStatusIngesting ManualStatus = "ingesting"
	ManualStatusReady     ManualStatus = "ready"
	ManualStatusFailed    ManualStatus = "failed"
)

// Manual is a registered, possibly ingested, product manual.
type Manual struct {
	ID         string
	Name       string
	SourcePath string
	Dir        string
	Kind       ManualKind
	Status     ManualStatus
	PageCount  int
	IconCount  int
	ChunkCount int
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// KnowledgePath returns the embedded chunk artifact of the manual.
func (m Manual) KnowledgePath() string {
	return filepath.Join(m.Dir, KnowledgeFile)
}

// IngestRun records one ingestion attempt.
type IngestRun struct {
	ID         string
	ManualID   string
	StartedAt  time.Time
	FinishedAt time.Time
	Phase      Phase
	Error      string
}

// Succeeded returns true if the run finished without error.
func (r IngestRun) Succeeded() bool {
	return !r.FinishedAt.IsZero() && r.Error == ""
}

// IngestOptions controls a single ingest.
type IngestOptions struct {
	// Name overrides the manual name derived from the file name.
	Name string

	// SkipActivate leaves the current active manual in place.
	SkipActivate bool
}

// SanitizeManualName turns a title or file stem into a safe directory name.
func SanitizeManualName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "manual"
	}
	return name
}

// Artifact file names inside a manual directory.
const (
	PagesDir            = "pages"
	IconsDir            = "icons"
	IconsRawMetaFile    = "icons_raw_meta.json"
	IconsClustersFile   = "icons_clusters.json"
	IconsClassifiedFile = "icons_classified.json"
	IconTokensFile      = "icon_tokens.json"
	EnrichedTextFile    = "text_with_icons.txt"
	KnowledgeFile       = "rag_chunks_with_embeddings.json"
)
