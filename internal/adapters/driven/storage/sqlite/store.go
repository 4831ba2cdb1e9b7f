package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/manualqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// DBFileName is the database file inside the data directory.
const DBFileName = "manualqa.db"

const activeManualKey = "active_manual"

// Ensure Store implements the interface.
var _ driven.ManualStore = (*Store)(nil)

// Store is the SQLite manual registry.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database in dataDir and applies
// pending migrations. If dataDir is empty, <home>/data is used.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := file.HomeDir()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(home, "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)

	// Pragmas in the DSN apply to every pooled connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(context.Background(), migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SchemaVersion returns the highest applied migration.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// migrate applies every NNN_*.up.sql newer than the recorded version, each
// in its own transaction together with its schema_migrations row.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		err = s.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version)
			return err
		})
		if err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

// ==================== Manuals ====================

const manualColumns = `id, name, source_path, dir, kind, status, page_count, icon_count,
	chunk_count, error, created_at, updated_at`

// Save stores or updates a manual. A name held by another manual yields
// domain.ErrAlreadyExists.
func (s *Store) Save(ctx context.Context, m domain.Manual) error {
	if m.ID == "" || m.Name == "" {
		return fmt.Errorf("%w: manual id and name are required", domain.ErrInvalidInput)
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		var owner string
		err := tx.QueryRowContext(ctx, "SELECT id FROM manuals WHERE name = ? AND id <> ?", m.Name, m.ID).Scan(&owner)
		switch {
		case err == nil:
			return fmt.Errorf("manual %q: %w", m.Name, domain.ErrAlreadyExists)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("checking manual name: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO manuals (`+manualColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				source_path = excluded.source_path,
				dir = excluded.dir,
				kind = excluded.kind,
				status = excluded.status,
				page_count = excluded.page_count,
				icon_count = excluded.icon_count,
				chunk_count = excluded.chunk_count,
				error = excluded.error,
				updated_at = excluded.updated_at
		`, m.ID, m.Name, m.SourcePath, m.Dir, string(m.Kind), string(m.Status),
			m.PageCount, m.IconCount, m.ChunkCount, m.Error,
			m.CreatedAt.UTC(), m.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("saving manual: %w", err)
		}
		return nil
	})
}

// Get retrieves a manual by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.Manual, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+manualColumns+" FROM manuals WHERE id = ?", id)
	return scanManual(row)
}

// GetByName retrieves a manual by its unique name.
func (s *Store) GetByName(ctx context.Context, name string) (*domain.Manual, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+manualColumns+" FROM manuals WHERE name = ?", name)
	return scanManual(row)
}

// List returns all manuals, most recently updated first.
func (s *Store) List(ctx context.Context) ([]domain.Manual, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+manualColumns+" FROM manuals ORDER BY updated_at DESC, name")
	if err != nil {
		return nil, fmt.Errorf("querying manuals: %w", err)
	}
	defer rows.Close()

	manuals := []domain.Manual{}
	for rows.Next() {
		m, err := scanManual(rows)
		if err != nil {
			return nil, err
		}
		manuals = append(manuals, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating manuals: %w", err)
	}
	return manuals, nil
}

// Delete removes a manual, its runs and, if it was active, the active marker.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM ingest_runs WHERE manual_id = ?", id); err != nil {
			return fmt.Errorf("deleting runs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM manuals WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting manual: %w", err)
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM app_state WHERE key = ? AND value = ?", activeManualKey, id)
		if err != nil {
			return fmt.Errorf("clearing active manual: %w", err)
		}
		return nil
	})
}

// SetActive records the manual used for answering. An empty id clears it.
func (s *Store) SetActive(ctx context.Context, id string) error {
	var err error
	if id == "" {
		_, err = s.db.ExecContext(ctx, "DELETE FROM app_state WHERE key = ?", activeManualKey)
	} else {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO app_state (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, activeManualKey, id)
	}
	if err != nil {
		return fmt.Errorf("setting active manual: %w", err)
	}
	return nil
}

// Active returns the active manual ID, or "" if none is set.
func (s *Store) Active(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM app_state WHERE key = ?", activeManualKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading active manual: %w", err)
	}
	return id, nil
}

// ==================== Ingest runs ====================

// SaveRun stores or updates an ingest run. The manual must exist.
func (s *Store) SaveRun(ctx context.Context, run domain.IngestRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, manual_id, started_at, finished_at, phase, error)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			phase = excluded.phase,
			error = excluded.error
	`, run.ID, run.ManualID, run.StartedAt.UTC(), nullTime(run.FinishedAt), string(run.Phase), run.Error)
	if err != nil {
		return fmt.Errorf("saving ingest run: %w", err)
	}
	return nil
}

// ListRuns returns the runs of a manual, newest first.
func (s *Store) ListRuns(ctx context.Context, manualID string) ([]domain.IngestRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, manual_id, started_at, finished_at, phase, error
		FROM ingest_runs WHERE manual_id = ?
		ORDER BY started_at DESC, id
	`, manualID)
	if err != nil {
		return nil, fmt.Errorf("querying ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IngestRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.IngestRun
		var phase string
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.ManualID, &run.StartedAt, &finished, &phase, &run.Error); err != nil {
			return nil, fmt.Errorf("scanning ingest run: %w", err)
		}
		run.Phase = domain.Phase(phase)
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ingest runs: %w", err)
	}
	return runs, nil
}

// ==================== Helpers ====================

type scanner interface {
	Scan(dest ...any) error
}

func scanManual(row scanner) (*domain.Manual, error) {
	var m domain.Manual
	var kind, status string
	err := row.Scan(&m.ID, &m.Name, &m.SourcePath, &m.Dir, &kind, &status,
		&m.PageCount, &m.IconCount, &m.ChunkCount, &m.Error, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning manual: %w", err)
	}
	m.Kind = domain.ManualKind(kind)
	m.Status = domain.ManualStatus(status)
	return &m, nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
