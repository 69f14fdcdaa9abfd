// Package credentials stores account credential records: email, password
// hash, verification state and the pending OTP.
package credentials

import (
	"context"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/server/models"
)

// Repository is the credential store. Emails passed in must already be
// normalized with common.NormalizeEmail.
type Repository interface {
	// FindByEmail returns common.ErrorNotFound when no record exists.
	FindByEmail(ctx context.Context, email string) (*models.Credential, error)

	// FindByEmailForUpdate is FindByEmail with a row lock; use inside a transaction.
	FindByEmailForUpdate(ctx context.Context, email string) (*models.Credential, error)

	FindByID(ctx context.Context, id string) (*models.Credential, error)

	// Create inserts a pending record and fills ID and timestamps.
	// Returns common.ErrAlreadyExists if the email is taken.
	Create(ctx context.Context, c *models.Credential) (*models.Credential, error)

	// UpdatePending overwrites the secret, names, role and pending profile
	// of a record that is still pending.
	UpdatePending(ctx context.Context, c *models.Credential) error

	SetOTP(ctx context.Context, id string, hash string, expiresAt, issuedAt time.Time) error
	ClearOTP(ctx context.Context, id string) error

	// MarkVerified flips a pending record to verified and clears the OTP and
	// pending profile in the same statement.
	MarkVerified(ctx context.Context, id string) error

	UpdatePassword(ctx context.Context, id string, hash string) error

	// PurgeExpiredOTP clears OTP fields whose expiry is before now.
	PurgeExpiredOTP(ctx context.Context, now time.Time) (int64, error)

	// DeleteStalePending removes pending records not touched since the cutoff.
	// Re-registering or resending a code bumps updated_at.
	DeleteStalePending(ctx context.Context, before time.Time) (int64, error)
}
