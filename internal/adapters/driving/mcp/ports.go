package mcp

import (
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// QA answers questions against the active manual.
	QA driving.QAService

	// Manuals lists the registry. Optional.
	Manuals driving.ManualService

	// Ingest reports pipeline progress. Optional.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.QA == nil {
		return ErrMissingQAService
	}
	return nil
}
