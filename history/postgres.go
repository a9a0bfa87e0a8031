package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS dbenforce_history (
	id SERIAL PRIMARY KEY,
	manifest TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ DEFAULT now(),
	execution_time INTERVAL,
	executed_by TEXT,
	status TEXT DEFAULT 'success',
	error_message TEXT,
	statements INTEGER DEFAULT 0,
	summary TEXT
);`

// Postgres keeps history in a table of a PostgreSQL database
type Postgres struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres history needs a dsn")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping history database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create dbenforce_history table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Record(ctx context.Context, r Record) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO dbenforce_history (manifest, checksum, applied_at, execution_time, executed_by, status, error_message, statements, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.Manifest, r.Checksum, r.AppliedAt, r.ExecutionTime, r.ExecutedBy, r.Status, r.ErrorMessage, r.Statements, r.Summary)
	if err != nil {
		return fmt.Errorf("recording apply of %s: %w", r.Manifest, err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT id, manifest, checksum, applied_at, execution_time, executed_by,
		       status, COALESCE(error_message, ''), statements, COALESCE(summary, '')
		FROM dbenforce_history
		ORDER BY applied_at DESC, id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query apply history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var executionTime *time.Duration
		if err := rows.Scan(&r.ID, &r.Manifest, &r.Checksum, &r.AppliedAt, &executionTime, &r.ExecutedBy,
			&r.Status, &r.ErrorMessage, &r.Statements, &r.Summary); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		if executionTime != nil {
			r.ExecutionTime = *executionTime
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
