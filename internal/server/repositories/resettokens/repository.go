// Package resettokens declares the repository for password reset tokens.
// Only SHA-256 hashes of the emailed raw tokens are stored.
package resettokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/server/models"
)

// Repository defines operations for issuing, consuming and purging reset tokens.
type Repository interface {
	// Create stores a token hash for credentialID valid until expiresAt.
	Create(ctx context.Context, t *models.ResetToken) error

	// FindForUpdate looks up and locks a token by hash. Implementations
	// return common.ErrorNotFound when the token is absent.
	FindForUpdate(ctx context.Context, tokenHash string) (*models.ResetToken, error)

	// Delete consumes a token. Deleting a non-existent token is not an error.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteByCredential revokes every outstanding token of the credential.
	DeleteByCredential(ctx context.Context, credentialID string) error

	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
