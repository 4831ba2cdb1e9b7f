// Package tui provides the interactive terminal interface: an ask view for
// questions against the active manual and a manuals view for switching
// between ingested manuals.
package tui

import (
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI calls.
type Ports struct {
	// QA answers questions.
	QA driving.QAService

	// Manuals lists and activates manuals.
	Manuals driving.ManualService

	// Ingest reports pipeline progress for the status bar. Optional.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.QA == nil {
		return ErrMissingQAService
	}
	if p.Manuals == nil {
		return ErrMissingManualService
	}
	return nil
}
