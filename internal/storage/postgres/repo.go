// Package postgres implements a Postgres-backed storage.Repository using pgx
// v5. Bulk inserts go through the native COPY protocol, which is the fastest
// path for append-only event rows.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"placestat/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN   string // connection string for pgxpool
	Table string // destination table, e.g. "public.placements"
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// eventColumns is the fixed column order used for COPY.
var eventColumns = []string{"timestamp", "user_key", "pixel_color", "x", "y"}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, nil, fmt.Errorf("postgres: table must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, closeFn, nil
}

// tableIdent splits "schema.table" into a pgx identifier.
func (r *Repository) tableIdent() pgx.Identifier {
	parts := strings.Split(r.cfg.Table, ".")
	out := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EnsureSchema creates the placements table and its timestamp index when
// absent. The timestamp is text on purpose: the canonical fixed-width format
// sorts chronologically, and keeping the raw string avoids a parse per row on
// load.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	timestamp text NOT NULL,
	user_key bigint NOT NULL,
	pixel_color text NOT NULL,
	x integer NOT NULL,
	y integer NOT NULL
)`, r.tableIdent().Sanitize())
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: create table: %w", err)
	}

	idxName := "idx_" + strings.ReplaceAll(r.cfg.Table, ".", "_") + "_timestamp"
	idx := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (timestamp)",
		pgx.Identifier{idxName}.Sanitize(), r.tableIdent().Sanitize(),
	)
	if _, err := r.pool.Exec(ctx, idx); err != nil {
		return fmt.Errorf("postgres: create index: %w", err)
	}
	return nil
}

// InsertEvents bulk-loads the events via COPY and returns the row count
// reported by the server.
func (r *Repository) InsertEvents(ctx context.Context, events []storage.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(events))
	for i, ev := range events {
		rows[i] = []any{ev.Timestamp, int64(ev.UserKey), ev.Color, ev.X, ev.Y}
	}

	n, err := r.pool.CopyFrom(ctx, r.tableIdent(), eventColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres: copy: %w", err)
	}
	return n, nil
}

// TopColors ranks colors by placement count for timestamps in [start, end]
// inclusive, highest count first.
func (r *Repository) TopColors(ctx context.Context, start, end string, limit int) ([]storage.ColorCount, error) {
	q := fmt.Sprintf(`SELECT pixel_color, COUNT(*) AS n
FROM %s
WHERE timestamp BETWEEN $1 AND $2
GROUP BY pixel_color
ORDER BY n DESC
LIMIT $3`, r.tableIdent().Sanitize())

	rows, err := r.pool.Query(ctx, q, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: top colors: %w", err)
	}
	defer rows.Close()

	var out []storage.ColorCount
	for rows.Next() {
		var cc storage.ColorCount
		if err := rows.Scan(&cc.Color, &cc.Count); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		out = append(out, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows: %w", err)
	}
	return out, nil
}
