package companies

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

const selectColumns = `id, owner_id, name, contact_email, website, verified, otp_hash, otp_expires_at, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompany(s scanner) (*models.Company, error) {
	c := &models.Company{}
	var (
		otpHash sql.NullString
		otpExp  sql.NullTime
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &c.ContactEmail, &c.Website, &c.Verified,
		&otpHash, &otpExp, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if otpHash.Valid {
		c.OTPHash = &otpHash.String
	}
	if otpExp.Valid {
		c.OTPExpiresAt = &otpExp.Time
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Company) (*models.Company, error) {
	query :=
		`INSERT INTO companies (owner_id, name, contact_email, website, verified)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, c.OwnerID, c.Name, c.ContactEmail, c.Website, c.Verified).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Company, error) {
	query := `SELECT ` + selectColumns + ` FROM companies WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *PostgresRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Company, error) {
	query := `SELECT ` + selectColumns + ` FROM companies WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, query, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, id string) (*models.Company, error) {
	c, err := scanCompany(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Company, error) {
	query := `SELECT ` + selectColumns + ` FROM companies WHERE owner_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) SetOTP(ctx context.Context, id string, hash string, expiresAt time.Time) error {
	query :=
		`UPDATE companies
		 SET otp_hash = $2, otp_expires_at = $3, updated_at = now()
		 WHERE id = $1 AND verified = false`

	return r.execOne(ctx, query, id, hash, expiresAt)
}

func (r *PostgresRepository) ClearOTP(ctx context.Context, id string) error {
	query :=
		`UPDATE companies
		 SET otp_hash = NULL, otp_expires_at = NULL, updated_at = now()
		 WHERE id = $1`

	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) error {
	query :=
		`UPDATE companies
		 SET verified = true, otp_hash = NULL, otp_expires_at = NULL, updated_at = now()
		 WHERE id = $1`

	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) PurgeExpiredOTP(ctx context.Context, now time.Time) (int64, error) {
	query :=
		`UPDATE companies
		 SET otp_hash = NULL, otp_expires_at = NULL, updated_at = now()
		 WHERE otp_expires_at IS NOT NULL AND otp_expires_at < $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
