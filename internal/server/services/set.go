package services

import (
	"context"

	"github.com/dmitrijs2005/equitygate/internal/server/auth"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
)

// Registrar is implemented by *RegistrationService.
type Registrar interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	ResendOTP(ctx context.Context, address string) error
}

// Verifier is implemented by *VerificationService.
type Verifier interface {
	Verify(ctx context.Context, address, code string) (*VerifyResult, error)
	RequestCompanyVerification(ctx context.Context, ownerID, companyID string) error
	VerifyCompany(ctx context.Context, ownerID, companyID, code string) error
}

// Authenticator is implemented by *SessionService.
type Authenticator interface {
	Login(ctx context.Context, address, password string) (*Session, error)
	Authenticate(token string) (*auth.Claims, error)
}

// PasswordResetter is implemented by *PasswordResetService.
type PasswordResetter interface {
	Request(ctx context.Context, address string) error
	Reset(ctx context.Context, rawToken, newPassword string) error
}

// Documents is implemented by *DocumentService.
type Documents interface {
	PresignUpload(ctx context.Context, ownerID, companyID string, kind models.DocumentKind) (*UploadTicket, error)
	PresignDownload(ctx context.Context, ownerID, documentID string) (string, error)
	ListDocuments(ctx context.Context, ownerID, companyID string) ([]*models.CompanyDocument, error)
}

// Set bundles the services exposed by the transports.
type Set struct {
	Registration  Registrar
	Verification  Verifier
	Sessions      Authenticator
	PasswordReset PasswordResetter
	Documents     Documents
}

var (
	_ Registrar        = (*RegistrationService)(nil)
	_ Verifier         = (*VerificationService)(nil)
	_ Authenticator    = (*SessionService)(nil)
	_ PasswordResetter = (*PasswordResetService)(nil)
	_ Documents        = (*DocumentService)(nil)
)
