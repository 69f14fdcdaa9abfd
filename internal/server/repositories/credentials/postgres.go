package credentials

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

const selectColumns = `id, email, password_hash, state, role, first_name, last_name, pending_profile,
		otp_hash, otp_expires_at, otp_issued_at, otp_issue_count, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Credential, error) {
	query := `SELECT ` + selectColumns + `
		FROM credentials
		WHERE email = $1`

	return r.findOne(ctx, query, email)
}

func (r *PostgresRepository) FindByEmailForUpdate(ctx context.Context, email string) (*models.Credential, error) {
	query := `SELECT ` + selectColumns + `
		FROM credentials
		WHERE email = $1
		FOR UPDATE`

	return r.findOne(ctx, query, email)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Credential, error) {
	query := `SELECT ` + selectColumns + `
		FROM credentials
		WHERE id = $1`

	return r.findOne(ctx, query, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (*models.Credential, error) {
	c := &models.Credential{}

	var (
		profile   []byte
		otpHash   sql.NullString
		otpExp    sql.NullTime
		otpIssued sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&c.ID, &c.Email, &c.PasswordHash, &c.State, &c.Role, &c.FirstName, &c.LastName, &profile,
		&otpHash, &otpExp, &otpIssued, &c.OTPIssueCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if c.PendingProfile, err = models.UnmarshalPendingProfile(profile); err != nil {
		return nil, fmt.Errorf("pending profile: %w", err)
	}
	if otpHash.Valid {
		c.OTPHash = &otpHash.String
	}
	if otpExp.Valid {
		c.OTPExpiresAt = &otpExp.Time
	}
	if otpIssued.Valid {
		c.OTPIssuedAt = &otpIssued.Time
	}

	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	query :=
		`INSERT INTO credentials (email, password_hash, state, role, first_name, last_name, pending_profile)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING id, created_at, updated_at`

	profile, err := profileArg(c.PendingProfile)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, query,
		c.Email, c.PasswordHash, models.StatePending, c.Role, c.FirstName, c.LastName, profile,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	c.State = models.StatePending
	return c, nil
}

func (r *PostgresRepository) UpdatePending(ctx context.Context, c *models.Credential) error {
	query :=
		`UPDATE credentials
		 SET password_hash = $2, role = $3, first_name = $4, last_name = $5, pending_profile = $6, updated_at = now()
		 WHERE id = $1 AND state = 'pending'`

	profile, err := profileArg(c.PendingProfile)
	if err != nil {
		return err
	}

	return r.execOne(ctx, query, c.ID, c.PasswordHash, c.Role, c.FirstName, c.LastName, profile)
}

func (r *PostgresRepository) SetOTP(ctx context.Context, id string, hash string, expiresAt, issuedAt time.Time) error {
	query :=
		`UPDATE credentials
		 SET otp_hash = $2, otp_expires_at = $3, otp_issued_at = $4, otp_issue_count = otp_issue_count + 1, updated_at = now()
		 WHERE id = $1 AND state = 'pending'`

	return r.execOne(ctx, query, id, hash, expiresAt, issuedAt)
}

func (r *PostgresRepository) ClearOTP(ctx context.Context, id string) error {
	query :=
		`UPDATE credentials
		 SET otp_hash = NULL, otp_expires_at = NULL, updated_at = now()
		 WHERE id = $1`

	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) error {
	query :=
		`UPDATE credentials
		 SET state = 'verified', otp_hash = NULL, otp_expires_at = NULL, otp_issued_at = NULL,
		     pending_profile = NULL, updated_at = now()
		 WHERE id = $1 AND state = 'pending'`

	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash string) error {
	query :=
		`UPDATE credentials
		 SET password_hash = $2, updated_at = now()
		 WHERE id = $1`

	return r.execOne(ctx, query, id, hash)
}

func (r *PostgresRepository) PurgeExpiredOTP(ctx context.Context, now time.Time) (int64, error) {
	query :=
		`UPDATE credentials
		 SET otp_hash = NULL, otp_expires_at = NULL
		 WHERE otp_expires_at IS NOT NULL AND otp_expires_at < $1`

	return r.execCount(ctx, query, now)
}

func (r *PostgresRepository) DeleteStalePending(ctx context.Context, before time.Time) (int64, error) {
	query :=
		`DELETE FROM credentials
		 WHERE state = 'pending' AND updated_at < $1`

	return r.execCount(ctx, query, before)
}

// execOne runs a statement that must touch exactly one row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	n, err := r.execCount(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// profileArg encodes the pending profile for a jsonb parameter; nil stays NULL.
func profileArg(p *models.PendingProfile) (any, error) {
	b, err := models.MarshalPendingProfile(p)
	if err != nil {
		return nil, fmt.Errorf("pending profile: %w", err)
	}
	if b == nil {
		return nil, nil
	}
	return string(b), nil
}
