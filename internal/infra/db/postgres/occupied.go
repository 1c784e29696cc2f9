package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"staycal/internal/domain/availability"
)

// OccupiedBackend keeps one row per occupied day of a property. Save swaps
// the rows inside one transaction, so readers never see a half-written set.
type OccupiedBackend struct {
	pool     *pgxpool.Pool
	property string
	now      func() time.Time
}

func NewOccupiedBackend(pool *pgxpool.Pool, property string, now func() time.Time) *OccupiedBackend {
	if now == nil {
		now = time.Now
	}
	return &OccupiedBackend{pool: pool, property: property, now: now}
}

func (b *OccupiedBackend) Name() string { return "postgres" }

func (b *OccupiedBackend) Load(ctx context.Context) ([]string, error) {
	rows, err := b.pool.Query(ctx, `
SELECT to_char(day, 'YYYY-MM-DD')
FROM occupied_dates
WHERE property = $1
ORDER BY day`, b.property)
	if err != nil {
		return nil, err
	}
	dates, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

func (b *OccupiedBackend) Save(ctx context.Context, dates []string) error {
	return withTx(ctx, b.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM occupied_dates WHERE property = $1`, b.property); err != nil {
			return err
		}
		if len(dates) == 0 {
			return nil
		}
		_, err := tx.Exec(ctx, `
INSERT INTO occupied_dates (property, day, created_at)
SELECT $1, d::date, $3
FROM unnest($2::text[]) AS d`, b.property, dates, b.now().UTC())
		return err
	})
}

func (b *OccupiedBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

var _ availability.Backend = (*OccupiedBackend)(nil)
