// Package documents stores metadata of company onboarding documents. The
// bytes themselves live in S3-compatible object storage.
package documents

import (
	"context"

	"github.com/dmitrijs2005/equitygate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, d *models.CompanyDocument) error
	FindByID(ctx context.Context, id string) (*models.CompanyDocument, error)
	ListByCompany(ctx context.Context, companyID string) ([]*models.CompanyDocument, error)
}
