package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) CreateInvestor(ctx context.Context, p *models.Investor) error {
	query :=
		`INSERT INTO investors (credential_id, investor_type, budget)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`

	if err := r.db.QueryRowContext(ctx, query, p.CredentialID, p.InvestorType, p.Budget).Scan(&p.CreatedAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateShareholder(ctx context.Context, p *models.Shareholder) error {
	query :=
		`INSERT INTO shareholders (credential_id, shares_held, share_value)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`

	if err := r.db.QueryRowContext(ctx, query, p.CredentialID, p.SharesHeld, p.ShareValue).Scan(&p.CreatedAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindInvestor(ctx context.Context, credentialID string) (*models.Investor, error) {
	query :=
		`SELECT credential_id, investor_type, budget, created_at
		 FROM investors
		 WHERE credential_id = $1`

	p := &models.Investor{}
	err := r.db.QueryRowContext(ctx, query, credentialID).Scan(&p.CredentialID, &p.InvestorType, &p.Budget, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) FindShareholder(ctx context.Context, credentialID string) (*models.Shareholder, error) {
	query :=
		`SELECT credential_id, shares_held, share_value, created_at
		 FROM shareholders
		 WHERE credential_id = $1`

	p := &models.Shareholder{}
	err := r.db.QueryRowContext(ctx, query, credentialID).Scan(&p.CredentialID, &p.SharesHeld, &p.ShareValue, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
