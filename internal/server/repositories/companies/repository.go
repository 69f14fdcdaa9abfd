// Package companies stores company profiles and the company contact-email
// verification code, which is independent of the owner's account OTP.
package companies

import (
	"context"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/server/models"
)

type Repository interface {
	// Create inserts a company and fills ID and timestamps.
	Create(ctx context.Context, c *models.Company) (*models.Company, error)

	// FindByID returns common.ErrorNotFound when absent.
	FindByID(ctx context.Context, id string) (*models.Company, error)

	// FindByIDForUpdate locks the row; use inside a transaction.
	FindByIDForUpdate(ctx context.Context, id string) (*models.Company, error)

	ListByOwner(ctx context.Context, ownerID string) ([]*models.Company, error)

	SetOTP(ctx context.Context, id string, hash string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, id string) error

	// MarkVerified sets verified and clears the OTP fields.
	MarkVerified(ctx context.Context, id string) error

	PurgeExpiredOTP(ctx context.Context, now time.Time) (int64, error)
}
