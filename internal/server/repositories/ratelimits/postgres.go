package ratelimits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/dmitrijs2005/equitygate/internal/dbx"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Acquire(ctx context.Context, key string, now time.Time) (*models.RateLimitCounter, error) {
	insert :=
		`INSERT INTO rate_limits (key, count, window_start)
		 VALUES ($1, 0, $2)
		 ON CONFLICT (key) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, insert, key, now); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	query :=
		`SELECT key, count, window_start
		 FROM rate_limits
		 WHERE key = $1
		 FOR UPDATE`

	c := &models.RateLimitCounter{}
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&c.Key, &c.Count, &c.WindowStart); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) Reset(ctx context.Context, key string, count int, windowStart time.Time) error {
	query :=
		`UPDATE rate_limits
		 SET count = $2, window_start = $3
		 WHERE key = $1`

	if _, err := r.db.ExecContext(ctx, query, key, count, windowStart); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Increment(ctx context.Context, key string) (int, error) {
	query :=
		`UPDATE rate_limits
		 SET count = count + 1
		 WHERE key = $1
		 RETURNING count`

	var count int
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query :=
		`DELETE FROM rate_limits
		 WHERE window_start < $1`

	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
