package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/dmitrijs2005/equitygate/internal/dbx"
	"github.com/dmitrijs2005/equitygate/internal/logging"
	"github.com/dmitrijs2005/equitygate/internal/server/config"
	"github.com/dmitrijs2005/equitygate/internal/server/email"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/repomanager"
)

type verifyInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type codeInput struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// VerifyResult reports the activated account and, for founders, the company
// created from the registration data.
type VerifyResult struct {
	CredentialID string
	Role         models.Role
	CompanyID    string
	// CompanyVerificationRequired is set when the company contact email
	// differs from the account email and must be confirmed separately.
	CompanyVerificationRequired bool
}

// VerificationService confirms account emails and company contact emails.
type VerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	limiter     Limiter
	otp         *OTPIssuer
	sender      email.Sender
	config      *config.Config
	logger      logging.Logger
	retry       dbx.RetryPolicy
}

func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager, limiter Limiter, otp *OTPIssuer,
	sender email.Sender, cfg *config.Config, logger logging.Logger) *VerificationService {
	return &VerificationService{
		db:          db,
		repomanager: m,
		limiter:     limiter,
		otp:         otp,
		sender:      sender,
		config:      cfg,
		logger:      logger.With("module", "verification"),
		retry:       dbx.DefaultRetryPolicy,
	}
}

// Verify checks code against the pending credential of address. On success
// the credential becomes verified and its dependent profile is created in
// the same transaction. An expired code is cleared before
// common.ErrOTPExpired is returned; a wrong code changes nothing except the
// rate limit counter.
func (s *VerificationService) Verify(ctx context.Context, address, code string) (*VerifyResult, error) {
	in := verifyInput{Email: common.NormalizeEmail(address), Code: code}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if err := s.limiter.Guard(ctx, ActionVerify, in.Email, s.config.VerifyLimit); err != nil {
		return nil, err
	}

	var (
		result  *VerifyResult
		expired bool
	)

	storeCtx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	err := dbx.WithTxRetry(storeCtx, s.db, nil, s.retry, func(ctx context.Context, tx dbx.DBTX) error {
		expired = false
		repo := s.repomanager.Credentials(tx)

		cred, err := repo.FindByEmailForUpdate(ctx, in.Email)
		if err != nil {
			return err
		}
		if cred.Verified() {
			return common.ErrAlreadyVerified
		}

		check, err := s.otp.Check(cred.OTPHash, cred.OTPExpiresAt, in.Code)
		if err != nil {
			return err
		}
		if check.Expired {
			expired = true
			return repo.ClearOTP(ctx, cred.ID)
		}
		if !check.Valid {
			return common.ErrInvalidCode
		}

		if err := repo.MarkVerified(ctx, cred.ID); err != nil {
			return err
		}
		result, err = s.createProfile(ctx, tx, cred)
		return err
	})
	if err != nil {
		s.logVerifyFailure(ctx, in.Email, err)
		return nil, err
	}
	if expired {
		s.logger.Info(ctx, "expired code cleared", "email", in.Email)
		return nil, common.ErrOTPExpired
	}

	s.logger.Info(ctx, "credential verified", "credential_id", result.CredentialID, "role", result.Role)
	return result, nil
}

// createProfile turns the pending profile into the role's dependent record.
func (s *VerificationService) createProfile(ctx context.Context, tx dbx.DBTX, cred *models.Credential) (*VerifyResult, error) {
	result := &VerifyResult{CredentialID: cred.ID, Role: cred.Role}

	p := cred.PendingProfile
	if p == nil {
		p = &models.PendingProfile{}
	}

	switch cred.Role {
	case models.RoleCompany:
		company, err := s.repomanager.Companies(tx).Create(ctx, &models.Company{
			OwnerID:      cred.ID,
			Name:         p.CompanyName,
			ContactEmail: p.ContactEmail,
			Website:      p.Website,
			Verified:     p.ContactEmail == cred.Email,
		})
		if err != nil {
			return nil, err
		}
		result.CompanyID = company.ID
		result.CompanyVerificationRequired = !company.Verified
	case models.RoleInvestor:
		if err := s.repomanager.Profiles(tx).CreateInvestor(ctx, &models.Investor{
			CredentialID: cred.ID,
			InvestorType: p.InvestorType,
			Budget:       p.Budget,
		}); err != nil {
			return nil, err
		}
	case models.RoleShareholder:
		if err := s.repomanager.Profiles(tx).CreateShareholder(ctx, &models.Shareholder{
			CredentialID: cred.ID,
			SharesHeld:   p.SharesHeld,
			ShareValue:   p.ShareValue,
		}); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// RequestCompanyVerification emails a code to the contact address of a
// company owned by ownerID. Companies of other owners are reported as not
// found.
func (s *VerificationService) RequestCompanyVerification(ctx context.Context, ownerID, companyID string) error {
	if err := s.limiter.Guard(ctx, ActionCompanyOTP, companyID, s.config.CompanyOTPLimit); err != nil {
		return err
	}

	var (
		company *models.Company
		otp     *OTP
	)

	storeCtx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	err := dbx.WithTxRetry(storeCtx, s.db, nil, s.retry, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		company, err = s.ownedCompanyForUpdate(ctx, tx, ownerID, companyID)
		if err != nil {
			return err
		}
		if company.Verified {
			return common.ErrAlreadyVerified
		}
		otp, err = s.otp.IssueCompany(ctx, tx, company)
		return err
	})
	if err != nil {
		s.logger.Warn(ctx, "company verification request failed", "company_id", companyID, "error", err)
		return err
	}

	msg := email.CompanyVerificationCode(company.ContactEmail, company.Name, otp.Code, s.otp.CompanyTTL())
	return deliver(ctx, s.sender, msg)
}

// VerifyCompany checks a company code with the same rules as Verify.
func (s *VerificationService) VerifyCompany(ctx context.Context, ownerID, companyID, code string) error {
	if err := validateInput(codeInput{Code: code}); err != nil {
		return err
	}

	if err := s.limiter.Guard(ctx, ActionVerify, "company/"+companyID, s.config.VerifyLimit); err != nil {
		return err
	}

	var expired bool

	storeCtx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	err := dbx.WithTxRetry(storeCtx, s.db, nil, s.retry, func(ctx context.Context, tx dbx.DBTX) error {
		expired = false

		company, err := s.ownedCompanyForUpdate(ctx, tx, ownerID, companyID)
		if err != nil {
			return err
		}
		if company.Verified {
			return common.ErrAlreadyVerified
		}

		check, err := s.otp.Check(company.OTPHash, company.OTPExpiresAt, code)
		if err != nil {
			return err
		}
		if check.Expired {
			expired = true
			return s.repomanager.Companies(tx).ClearOTP(ctx, company.ID)
		}
		if !check.Valid {
			return common.ErrInvalidCode
		}
		return s.repomanager.Companies(tx).MarkVerified(ctx, company.ID)
	})
	if err != nil {
		s.logVerifyFailure(ctx, companyID, err)
		return err
	}
	if expired {
		return common.ErrOTPExpired
	}

	s.logger.Info(ctx, "company verified", "company_id", companyID)
	return nil
}

func (s *VerificationService) ownedCompanyForUpdate(ctx context.Context, tx dbx.DBTX, ownerID, companyID string) (*models.Company, error) {
	company, err := s.repomanager.Companies(tx).FindByIDForUpdate(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company.OwnerID != ownerID {
		s.logger.Warn(ctx, "company owner mismatch", "company_id", companyID, "caller", ownerID)
		return nil, common.ErrorNotFound
	}
	return company, nil
}

func (s *VerificationService) logVerifyFailure(ctx context.Context, subject string, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidCode), errors.Is(err, common.ErrNoOTPRequested),
		errors.Is(err, common.ErrAlreadyVerified), errors.Is(err, common.ErrorNotFound):
		s.logger.Info(ctx, "verification rejected", "subject", subject, "reason", err)
	default:
		s.logger.Error(ctx, "verification failed", "subject", subject, "error", err)
	}
}
