// Package mcp exposes manualqa to AI assistants over the Model Context
// Protocol: question answering, retrieval and ingest status as tools, and
// the manual registry as a resource.
package mcp

import "errors"

// ErrMissingQAService is returned when the QA service is not provided.
var ErrMissingQAService = errors.New("mcp: qa service is required")
