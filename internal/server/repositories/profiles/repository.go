// Package profiles stores investor and shareholder profiles, created when the
// owning credential is verified.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/equitygate/internal/server/models"
)

type Repository interface {
	CreateInvestor(ctx context.Context, p *models.Investor) error
	CreateShareholder(ctx context.Context, p *models.Shareholder) error

	// FindInvestor and FindShareholder return common.ErrorNotFound when absent.
	FindInvestor(ctx context.Context, credentialID string) (*models.Investor, error)
	FindShareholder(ctx context.Context, credentialID string) (*models.Shareholder, error)
}
