// Package file publishes the ingest status snapshot as a small JSON file so
// other processes (the status command, the MCP server, a TUI) can poll it.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// FileName is the status file inside the logs directory.
const FileName = "ingest_progress.json"

// Ensure Reporter implements the interface.
var _ driven.ProgressReporter = (*Reporter)(nil)

// Reporter overwrites {"phase": ..., "progress": ...} at path on every
// report. Writes go through a temp file and rename, so a reader sees either
// the old snapshot or the new one.
type Reporter struct {
	mu   sync.Mutex
	path string
}

// NewReporter creates a reporter writing to <logsDir>/ingest_progress.json.
func NewReporter(logsDir string) *Reporter {
	return &Reporter{path: filepath.Join(logsDir, FileName)}
}

// Path returns the status file path.
func (r *Reporter) Path() string {
	return r.path
}

// Report replaces the current snapshot.
func (r *Reporter) Report(phase domain.Phase, progress int) error {
	data, err := json.Marshal(domain.Progress{Phase: phase, Progress: progress})
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".progress-*.json")
	if err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write progress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}

// Current returns the latest snapshot, or idle if no file exists yet.
func (r *Reporter) Current() (domain.Progress, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.IdleProgress(), nil
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("read progress: %w", err)
	}

	var p domain.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Progress{}, fmt.Errorf("decode progress: %w", err)
	}
	if p.Phase == "" {
		p.Phase = domain.PhaseIdle
	}
	return p, nil
}
