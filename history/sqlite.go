package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS dbenforce_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	manifest TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TEXT NOT NULL,
	execution_ns INTEGER NOT NULL DEFAULT 0,
	executed_by TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'success',
	error_message TEXT NOT NULL DEFAULT '',
	statements INTEGER NOT NULL DEFAULT 0,
	summary TEXT NOT NULL DEFAULT ''
);`

// SQLite keeps history in a local database file
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite history needs a file path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create dbenforce_history table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Record(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dbenforce_history (manifest, checksum, applied_at, execution_ns, executed_by, status, error_message, statements, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Manifest, r.Checksum, r.AppliedAt.UTC().Format(time.RFC3339Nano), int64(r.ExecutionTime), r.ExecutedBy,
		r.Status, r.ErrorMessage, r.Statements, r.Summary)
	if err != nil {
		return fmt.Errorf("recording apply of %s: %w", r.Manifest, err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT id, manifest, checksum, applied_at, execution_ns, executed_by, status, error_message, statements, summary
		FROM dbenforce_history
		ORDER BY id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query apply history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var appliedAt string
		var ns int64
		if err := rows.Scan(&r.ID, &r.Manifest, &r.Checksum, &appliedAt, &ns, &r.ExecutedBy,
			&r.Status, &r.ErrorMessage, &r.Statements, &r.Summary); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		if r.AppliedAt, err = time.Parse(time.RFC3339Nano, appliedAt); err != nil {
			return nil, fmt.Errorf("parse applied_at %q: %w", appliedAt, err)
		}
		r.ExecutionTime = time.Duration(ns)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
