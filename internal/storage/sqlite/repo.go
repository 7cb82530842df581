// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. It performs batched INSERTs inside a transaction; SQLite does
// not have a dedicated bulk-load API like Postgres COPY, but transactions keep
// performance acceptable for moderate volumes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver; no cgo toolchain needed

	"placestat/internal/storage"
)

// Config holds SQLite repository configuration.
type Config struct {
	DSN   string // path or database/sql DSN, e.g. "file:place.db?cache=shared"
	Table string // destination table, e.g. "placements"
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, nil, fmt.Errorf("sqlite: table must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// Fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// EnsureSchema creates the placements table and its timestamp index when
// absent. Timestamps are stored as canonical text: the fixed-width format
// sorts chronologically, so BETWEEN over text behaves correctly.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	timestamp TEXT NOT NULL,
	user_key INTEGER NOT NULL,
	pixel_color TEXT NOT NULL,
	x INTEGER NOT NULL,
	y INTEGER NOT NULL
)`, r.cfg.Table)
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("sqlite: create table: %w", err)
	}
	idx := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_timestamp ON %s (timestamp)",
		r.cfg.Table, r.cfg.Table,
	)
	if _, err := r.db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("sqlite: create index: %w", err)
	}
	return nil
}

// insertSQL builds the per-row INSERT statement for the configured table.
func (r *Repository) insertSQL() string {
	return fmt.Sprintf(
		"INSERT INTO %s (timestamp, user_key, pixel_color, x, y) VALUES (?, ?, ?, ?, ?)",
		r.cfg.Table,
	)
}

// InsertEvents inserts the given events inside a single transaction using a
// prepared statement. It returns the number of rows inserted or an error; on
// error the transaction is rolled back and no rows from the batch remain.
func (r *Repository) InsertEvents(ctx context.Context, events []storage.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, r.insertSQL())
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, ev := range events {
		// uint64 keys round-trip through SQLite's signed INTEGER column.
		if _, err := stmt.ExecContext(ctx, ev.Timestamp, int64(ev.UserKey), ev.Color, ev.X, ev.Y); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert row: %w", err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// TopColors ranks colors by placement count for timestamps in [start, end]
// inclusive, highest count first.
func (r *Repository) TopColors(ctx context.Context, start, end string, limit int) ([]storage.ColorCount, error) {
	q := fmt.Sprintf(`SELECT pixel_color, COUNT(*) AS n
FROM %s
WHERE timestamp BETWEEN ? AND ?
GROUP BY pixel_color
ORDER BY n DESC
LIMIT ?`, r.cfg.Table)

	rows, err := r.db.QueryContext(ctx, q, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: top colors: %w", err)
	}
	defer rows.Close()

	var out []storage.ColorCount
	for rows.Next() {
		var cc storage.ColorCount
		if err := rows.Scan(&cc.Color, &cc.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		out = append(out, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}
	return out, nil
}
