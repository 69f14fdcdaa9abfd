package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/dmitrijs2005/equitygate/internal/dbx"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
)

// PostgresRepository implements document metadata storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, d *models.CompanyDocument) error {
	query := `
		INSERT INTO company_documents (company_id, kind, storage_key)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, d.CompanyID, d.Kind, d.StorageKey).Scan(&d.ID, &d.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.CompanyDocument, error) {
	query := `
		SELECT id, company_id, kind, storage_key, created_at
		FROM company_documents
		WHERE id = $1
	`
	d := &models.CompanyDocument{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.CompanyID, &d.Kind, &d.StorageKey, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) ListByCompany(ctx context.Context, companyID string) ([]*models.CompanyDocument, error) {
	query := `
		SELECT id, company_id, kind, storage_key, created_at
		FROM company_documents
		WHERE company_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []*models.CompanyDocument
	for rows.Next() {
		var item models.CompanyDocument
		if err := rows.Scan(&item.ID, &item.CompanyID, &item.Kind, &item.StorageKey, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
