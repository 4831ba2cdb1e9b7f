package driven

import "time"

// Metrics records pipeline and model-call instrumentation.
// Implementations must be safe for concurrent use.
type Metrics interface {
	// ObserveStage records how long an ingest stage took and whether it failed.
	ObserveStage(stage string, d time.Duration, err error)

	// CountModelCall records one call to a vision, LLM or embedding provider.
	CountModelCall(kind, outcome string)

	// AddIcons records icon pipeline counts ("detected", "clusters", "classified", "rejected").
	AddIcons(stage string, n int)

	// ObserveQuestion records one answered question and its intent.
	ObserveQuestion(intent string, d time.Duration)
}
