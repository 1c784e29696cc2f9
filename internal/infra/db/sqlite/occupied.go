package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"staycal/internal/domain/availability"
)

const schema = `
CREATE TABLE IF NOT EXISTS occupied_dates (
	property TEXT NOT NULL,
	day TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (property, day)
)`

// Open opens (creating if needed) the database file and ensures the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: create dir: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ensure schema: %w", err)
	}
	return db, nil
}

type OccupiedBackend struct {
	db       *sql.DB
	property string
	now      func() time.Time
}

func NewOccupiedBackend(db *sql.DB, property string, now func() time.Time) *OccupiedBackend {
	if now == nil {
		now = time.Now
	}
	return &OccupiedBackend{db: db, property: property, now: now}
}

func (b *OccupiedBackend) Name() string { return "sqlite" }

func (b *OccupiedBackend) Load(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT day FROM occupied_dates WHERE property = ? ORDER BY day`, b.property)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	dates := []string{}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		dates = append(dates, day)
	}
	return dates, rows.Err()
}

func (b *OccupiedBackend) Save(ctx context.Context, dates []string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := b.replace(ctx, tx, dates); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (b *OccupiedBackend) replace(ctx context.Context, tx *sql.Tx, dates []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM occupied_dates WHERE property = ?`, b.property); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO occupied_dates (property, day, created_at) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	createdAt := b.now().UTC().Format(time.RFC3339)
	for _, d := range dates {
		if _, err := stmt.ExecContext(ctx, b.property, d, createdAt); err != nil {
			return err
		}
	}
	return nil
}

func (b *OccupiedBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

var _ availability.Backend = (*OccupiedBackend)(nil)
