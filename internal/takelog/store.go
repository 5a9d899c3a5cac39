package takelog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; mismatched databases must be deleted by the operator.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("take log schema version mismatch")

// Take outcomes.
const (
	OutcomeSaved  = "saved"
	OutcomeEmpty  = "empty"
	OutcomeFailed = "failed"
)

// Take is one capture attempt, whatever its outcome.
type Take struct {
	ID              string
	ScriptID        string
	Outcome         string
	Samples         int
	DurationSeconds float64
	SampleRate      int
	Message         string
	CreatedAt       time.Time
}

// Store manages take persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the take log database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure take log directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to recreate)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Record inserts a take. A missing ID gets a fresh uuid; a missing timestamp
// gets the current time.
func (s *Store) Record(ctx context.Context, take Take) (*Take, error) {
	if strings.TrimSpace(take.ScriptID) == "" {
		return nil, errors.New("take requires a script id")
	}
	switch take.Outcome {
	case OutcomeSaved, OutcomeEmpty, OutcomeFailed:
	default:
		return nil, fmt.Errorf("unknown take outcome %q", take.Outcome)
	}
	if take.ID == "" {
		take.ID = uuid.NewString()
	}
	if take.CreatedAt.IsZero() {
		take.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO takes (
            id, script_id, outcome, samples, duration_seconds, sample_rate, message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		take.ID,
		take.ScriptID,
		take.Outcome,
		take.Samples,
		take.DurationSeconds,
		take.SampleRate,
		take.Message,
		take.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert take: %w", err)
	}
	return &take, nil
}

// Recent returns the newest takes first, at most limit of them.
func (s *Store) Recent(ctx context.Context, limit int) ([]Take, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, script_id, outcome, samples, duration_seconds, sample_rate, message, created_at
         FROM takes ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query takes: %w", err)
	}
	defer rows.Close()

	var takes []Take
	for rows.Next() {
		var take Take
		var createdAt string
		if err := rows.Scan(
			&take.ID,
			&take.ScriptID,
			&take.Outcome,
			&take.Samples,
			&take.DurationSeconds,
			&take.SampleRate,
			&take.Message,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan take: %w", err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			take.CreatedAt = parsed
		}
		takes = append(takes, take)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate takes: %w", err)
	}
	return takes, nil
}
