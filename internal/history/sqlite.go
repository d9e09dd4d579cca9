package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ariel-frischer/modelverifier/internal/report"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	recorded_at INTEGER NOT NULL,
	module TEXT NOT NULL,
	path TEXT NOT NULL,
	revision TEXT NOT NULL DEFAULT '',
	verdict TEXT NOT NULL,
	errors INTEGER NOT NULL,
	warnings INTEGER NOT NULL,
	duration TEXT NOT NULL
);
`

// SQLiteStore is the SQLite history backend.
type SQLiteStore struct {
	db         *sql.DB
	maxEntries int
}

// OpenSQLite opens (creating if needed) the history database at path.
func OpenSQLite(path string, maxEntries int) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history database path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &SQLiteStore{db: db, maxEntries: maxEntries}, nil
}

// Record inserts an entry and prunes the oldest rows beyond the maximum.
func (s *SQLiteStore) Record(ctx context.Context, entry HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, recorded_at, module, path, revision, verdict, errors, warnings, duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.UTC().UnixMilli(), entry.Module, entry.Path, entry.Revision,
		string(entry.Verdict), entry.Errors, entry.Warnings, entry.Duration,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}

	if s.maxEntries > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM runs WHERE seq NOT IN (
				SELECT seq FROM runs ORDER BY seq DESC LIMIT ?
			)`, s.maxEntries)
		if err != nil {
			return fmt.Errorf("prune history: %w", err)
		}
	}
	return tx.Commit()
}

// List returns up to limit entries, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	query := `SELECT id, recorded_at, module, path, revision, verdict, errors, warnings, duration
		FROM runs ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			e       HistoryEntry
			millis  int64
			verdict string
		)
		if err := rows.Scan(&e.ID, &millis, &e.Module, &e.Path, &e.Revision, &verdict,
			&e.Errors, &e.Warnings, &e.Duration); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Timestamp = time.UnixMilli(millis).UTC()
		e.Verdict = report.Verdict(verdict)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
