// Package messages defines the Bubbletea messages exchanged between the
// TUI views and the app.
package messages

import (
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewAsk is the question and answer view.
	ViewAsk ViewType = iota
	// ViewManuals lists ingested manuals.
	ViewManuals
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewAsk:
		return "ask"
	case ViewManuals:
		return "manuals"
	default:
		return "unknown"
	}
}

// Next returns the view Tab switches to.
func (v ViewType) Next() ViewType {
	if v == ViewAsk {
		return ViewManuals
	}
	return ViewAsk
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// AnswerReceived carries the reply to a question.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// ManualsLoaded carries the registry listing.
type ManualsLoaded struct {
	Manuals  []domain.Manual
	ActiveID string
	Err      error
}

// ManualActivated signals that a manual became the active one.
type ManualActivated struct {
	Manual *domain.Manual
	Err    error
}

// ProgressUpdated carries a poll of the ingest progress file.
type ProgressUpdated struct {
	Progress domain.Progress
	Err      error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
