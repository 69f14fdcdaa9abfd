package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/dmitrijs2005/equitygate/internal/cryptox"
	"github.com/dmitrijs2005/equitygate/internal/dbx"
	"github.com/dmitrijs2005/equitygate/internal/logging"
	"github.com/dmitrijs2005/equitygate/internal/server/config"
	"github.com/dmitrijs2005/equitygate/internal/server/email"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/repomanager"
)

type resetInput struct {
	Token       string `json:"token" validate:"required,hexadecimal,len=64"`
	NewPassword string `json:"new_password" validate:"required,min=8,maxbytes=72"`
}

// PasswordResetService issues single-use reset tokens by email and redeems them.
type PasswordResetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	limiter     Limiter
	sender      email.Sender
	config      *config.Config
	logger      logging.Logger
	retry       dbx.RetryPolicy
	now         func() time.Time
	newToken    func() (raw, hash string, err error)
}

func NewPasswordResetService(db *sql.DB, m repomanager.RepositoryManager, limiter Limiter, sender email.Sender,
	cfg *config.Config, logger logging.Logger) *PasswordResetService {
	return &PasswordResetService{
		db:          db,
		repomanager: m,
		limiter:     limiter,
		sender:      sender,
		config:      cfg,
		logger:      logger.With("module", "password_reset"),
		retry:       dbx.DefaultRetryPolicy,
		now:         time.Now,
		newToken:    cryptox.NewResetToken,
	}
}

// Request emails a reset token to a verified account. Unknown and pending
// accounts get no email and no error. Older tokens of the account are
// revoked.
func (s *PasswordResetService) Request(ctx context.Context, address string) error {
	in := emailInput{Email: common.NormalizeEmail(address)}
	if err := validateInput(in); err != nil {
		return err
	}

	if err := s.limiter.Guard(ctx, ActionReset, in.Email, s.config.ResetLimit); err != nil {
		return err
	}

	raw, hash, err := s.newToken()
	if err != nil {
		s.logger.Error(ctx, "reset token generation failed", "error", err)
		return common.ErrorInternal
	}

	storeCtx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	var issued bool
	err = dbx.WithTxRetry(storeCtx, s.db, nil, s.retry, func(ctx context.Context, tx dbx.DBTX) error {
		issued = false

		cred, err := s.repomanager.Credentials(tx).FindByEmail(ctx, in.Email)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !cred.Verified() {
			return nil
		}

		tokens := s.repomanager.ResetTokens(tx)
		if err := tokens.DeleteByCredential(ctx, cred.ID); err != nil {
			return err
		}
		if err := tokens.Create(ctx, &models.ResetToken{
			TokenHash:    hash,
			CredentialID: cred.ID,
			ExpiresAt:    s.now().Add(s.config.ResetTokenValidityDuration),
		}); err != nil {
			return err
		}
		issued = true
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "reset token issue failed", "email", in.Email, "error", err)
		return err
	}
	if !issued {
		s.logger.Info(ctx, "password reset ignored", "email", in.Email)
		return nil
	}

	return deliver(ctx, s.sender, email.PasswordReset(in.Email, raw, s.config.ResetTokenValidityDuration))
}

// Reset sets a new password for the owner of rawToken and consumes the
// token. Unknown, used and expired tokens all yield common.ErrInvalidToken.
func (s *PasswordResetService) Reset(ctx context.Context, rawToken, newPassword string) error {
	in := resetInput{Token: rawToken, NewPassword: newPassword}
	if err := validateInput(in); err != nil {
		return err
	}

	passwordHash, err := cryptox.HashSecret(in.NewPassword, s.config.BcryptCost)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return common.ErrorInternal
	}
	tokenHash := cryptox.HashToken(in.Token)

	storeCtx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	var credentialID string
	err = dbx.WithTxRetry(storeCtx, s.db, nil, s.retry, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repomanager.ResetTokens(tx)

		token, err := tokens.FindForUpdate(ctx, tokenHash)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		if err != nil {
			return err
		}
		if s.now().After(token.ExpiresAt) {
			return common.ErrInvalidToken
		}

		if err := s.repomanager.Credentials(tx).UpdatePassword(ctx, token.CredentialID, passwordHash); err != nil {
			return err
		}
		credentialID = token.CredentialID
		return tokens.Delete(ctx, tokenHash)
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			s.logger.Info(ctx, "password reset rejected", "reason", "invalid or expired token")
		} else {
			s.logger.Error(ctx, "password reset failed", "error", err)
		}
		return err
	}

	s.logger.Info(ctx, "password reset", "credential_id", credentialID)
	return nil
}
