package domain

// SearchHit is one retrieved chunk ranked by cosine similarity.
type SearchHit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// Answer is the result of asking a question against the active manual.
type Answer struct {
	Intent Intent      `json:"intent,omitempty"`
	Answer string      `json:"answer"`
	Chunks []SearchHit `json:"chunks,omitempty"`
}

// NoManualMessage is returned when a question arrives before any manual is loaded.
const NoManualMessage = "No manual uploaded yet. Please upload a PDF first."
