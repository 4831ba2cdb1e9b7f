package tui

import "errors"

// ErrMissingQAService is returned when the QA service is not provided.
var ErrMissingQAService = errors.New("tui: qa service is required")

// ErrMissingManualService is returned when the manual service is not provided.
var ErrMissingManualService = errors.New("tui: manual service is required")
