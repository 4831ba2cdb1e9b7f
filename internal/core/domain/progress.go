package domain

// Phase is a coarse ingestion stage reported to status readers.
type Phase string

// Ingestion phases in the order they are reported.
const (
	PhaseIdle      Phase = "idle"
	PhaseIcons     Phase = "icons"
	PhaseEmbedding Phase = "embedding"
	PhaseError     Phase = "error"
)

// Progress is the latest ingestion status snapshot.
type Progress struct {
	Phase    Phase `json:"phase"`
	Progress int   `json:"progress"`
}

// IdleProgress is reported before any ingest has run.
func IdleProgress() Progress {
	return Progress{Phase: PhaseIdle, Progress: 0}
}

// Done returns true once the final phase has completed.
func (p Progress) Done() bool {
	return p.Phase == PhaseEmbedding && p.Progress >= 100
}
