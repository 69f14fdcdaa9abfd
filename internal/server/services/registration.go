package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

// Registration outcomes.
const (
	StatusOTPSent           = "otp_sent"
	StatusAlreadyRegistered = "already_registered"
)

// Limiter is satisfied by *RateLimiter.
type Limiter interface {
	Guard(ctx context.Context, action, subject string, policy config.RateLimitPolicy) error
}

// RegisterInput is the self-service sign-up request. Role-specific fields
// are required only for their role.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,maxbytes=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Role      string `json:"role" validate:"required,oneof=company investor shareholder"`

	CompanyName  string `json:"company_name" validate:"required_if=Role company,max=200"`
	ContactEmail string `json:"contact_email" validate:"required_if=Role company,omitempty,email"`
	Website      string `json:"website" validate:"required_if=Role company,omitempty,url"`

	InvestorType string  `json:"investor_type" validate:"required_if=Role investor,max=50"`
	Budget       float64 `json:"budget" validate:"required_if=Role investor,omitempty,gt=0"`

	SharesHeld int64   `json:"shares_held" validate:"required_if=Role shareholder,omitempty,gt=0"`
	ShareValue float64 `json:"share_value" validate:"required_if=Role shareholder,omitempty,gt=0"`
}

func (in *RegisterInput) pendingProfile() *models.PendingProfile {
	switch models.Role(in.Role) {
	case models.RoleCompany:
		return &models.PendingProfile{
			CompanyName:  in.CompanyName,
			ContactEmail: common.NormalizeEmail(in.ContactEmail),
			Website:      in.Website,
		}
	case models.RoleInvestor:
		return &models.PendingProfile{InvestorType: in.InvestorType, Budget: in.Budget}
	case models.RoleShareholder:
		return &models.PendingProfile{SharesHeld: in.SharesHeld, ShareValue: in.ShareValue}
	}
	return nil
}

type RegisterResult struct {
	Status       string
	CredentialID string
}

type emailInput struct {
	Email string `json:"email" validate:"required,email"`
}

// RegistrationService creates pending credentials and sends their codes.
type RegistrationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	limiter     Limiter
	otp         *OTPIssuer
	sender      email.Sender
	config      *config.Config
	logger      logging.Logger
	retry       dbx.RetryPolicy
}

func NewRegistrationService(db *sql.DB, m repomanager.RepositoryManager, limiter Limiter, otp *OTPIssuer,
	sender email.Sender, cfg *config.Config, logger logging.Logger) *RegistrationService {
	return &RegistrationService{
		db:          db,
		repomanager: m,
		limiter:     limiter,
		otp:         otp,
		sender:      sender,
		config:      cfg,
		logger:      logger.With("module", "registration"),
		retry:       dbx.DefaultRetryPolicy,
	}
}

// Register validates the input, stores (or refreshes) a pending credential
// with a new code and emails the code. An existing pending registration for
// the same email is overwritten; a verified one is reported as
// StatusAlreadyRegistered without any write.
//
// If the email cannot be delivered the pending record stays stored and the
// error wraps common.ErrDependencyFailure.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.Email = common.NormalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if err := s.limiter.Guard(ctx, ActionRegister, in.Email, s.config.RegisterLimit); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashSecret(in.Password, s.config.BcryptCost)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	cred := &models.Credential{
		Email:          in.Email,
		PasswordHash:   hash,
		State:          models.StatePending,
		Role:           models.Role(in.Role),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		PendingProfile: in.pendingProfile(),
	}

	var (
		result = &RegisterResult{}
		otp    *OTP
	)

	storeCtx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	err = dbx.WithTxRetry(storeCtx, s.db, nil, s.retry, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Credentials(tx)

		existing, err := repo.FindByEmailForUpdate(ctx, in.Email)
		switch {
		case err == nil && existing.Verified():
			result.Status = StatusAlreadyRegistered
			result.CredentialID = existing.ID
			return nil
		case err == nil:
			cred.ID = existing.ID
			if err := repo.UpdatePending(ctx, cred); err != nil {
				return err
			}
		case errors.Is(err, common.ErrorNotFound):
			created, err := repo.Create(ctx, cred)
			if errors.Is(err, common.ErrAlreadyExists) {
				return common.ErrConflict
			}
			if err != nil {
				return err
			}
			cred.ID = created.ID
		default:
			return err
		}

		otp, err = s.otp.Issue(ctx, tx, cred)
		if err != nil {
			return err
		}
		result.Status = StatusOTPSent
		result.CredentialID = cred.ID
		return nil
	})
	if err != nil {
		if !errors.Is(err, common.ErrConflict) {
			s.logger.Error(ctx, "registration failed", "email", in.Email, "error", err)
		}
		return nil, err
	}

	if result.Status == StatusAlreadyRegistered {
		s.logger.Info(ctx, "registration for verified account ignored", "credential_id", result.CredentialID)
		return result, nil
	}

	s.logger.Info(ctx, "pending credential stored", "credential_id", result.CredentialID)

	msg := email.VerificationCode(in.Email, in.FirstName, otp.Code, s.otp.TTL())
	if err := deliver(ctx, s.sender, msg); err != nil {
		return nil, err
	}
	return result, nil
}

// ResendOTP issues a new code for a pending credential. Unknown and already
// verified emails are silently ignored.
func (s *RegistrationService) ResendOTP(ctx context.Context, address string) error {
	in := emailInput{Email: common.NormalizeEmail(address)}
	if err := validateInput(in); err != nil {
		return err
	}

	if err := s.limiter.Guard(ctx, ActionOTPResend, in.Email, s.config.OTPResendLimit); err != nil {
		return err
	}

	var (
		cred *models.Credential
		otp  *OTP
	)

	storeCtx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	err := dbx.WithTxRetry(storeCtx, s.db, nil, s.retry, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		otp = nil

		cred, err = s.repomanager.Credentials(tx).FindByEmailForUpdate(ctx, in.Email)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if cred.Verified() {
			return nil
		}

		otp, err = s.otp.Issue(ctx, tx, cred)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "otp resend failed", "email", in.Email, "error", err)
		return err
	}
	if otp == nil {
		s.logger.Debug(ctx, "otp resend ignored", "email", in.Email)
		return nil
	}

	return deliver(ctx, s.sender, email.VerificationCode(cred.Email, cred.FirstName, otp.Code, s.otp.TTL()))
}

// deliver sends m and makes sure a failure matches common.ErrDependencyFailure.
func deliver(ctx context.Context, sender email.Sender, m email.Message) error {
	if err := sender.Send(ctx, m); err != nil {
		if errors.Is(err, common.ErrDependencyFailure) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrDependencyFailure, err)
	}
	return nil
}

func withStoreTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
