package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/dmitrijs2005/equitygate/internal/cryptox"
	"github.com/dmitrijs2005/equitygate/internal/dbx"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/repomanager"
)

// OTP is a freshly generated code. Only Hash is ever persisted.
type OTP struct {
	Code      string
	Hash      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// OTPResult is the outcome of comparing a submitted code. Expired takes
// precedence: an expired code is never compared.
type OTPResult struct {
	Valid   bool
	Expired bool
}

// OTPIssuer generates, stores and checks six digit codes for credentials
// and companies.
type OTPIssuer struct {
	repomanager repomanager.RepositoryManager
	cost        int
	ttl         time.Duration
	companyTTL  time.Duration
	now         func() time.Time
}

func NewOTPIssuer(m repomanager.RepositoryManager, bcryptCost int, ttl, companyTTL time.Duration) *OTPIssuer {
	return &OTPIssuer{
		repomanager: m,
		cost:        bcryptCost,
		ttl:         ttl,
		companyTTL:  companyTTL,
		now:         time.Now,
	}
}

// Generate returns a code valid for ttl from now.
func (o *OTPIssuer) Generate(ttl time.Duration) (*OTP, error) {
	code, err := cryptox.GenerateOTPCode()
	if err != nil {
		return nil, err
	}
	hash, err := cryptox.HashSecret(code, o.cost)
	if err != nil {
		return nil, err
	}
	now := o.now()
	return &OTP{Code: code, Hash: hash, IssuedAt: now, ExpiresAt: now.Add(ttl)}, nil
}

// Check compares code against a stored hash. It returns
// common.ErrNoOTPRequested when nothing is stored.
func (o *OTPIssuer) Check(hash *string, expiresAt *time.Time, code string) (OTPResult, error) {
	if hash == nil || expiresAt == nil {
		return OTPResult{}, common.ErrNoOTPRequested
	}
	if o.now().After(*expiresAt) {
		return OTPResult{Expired: true}, nil
	}
	return OTPResult{Valid: cryptox.CheckSecret(*hash, code)}, nil
}

// Issue replaces the credential's code and returns the plaintext for the
// email. Run it inside the transaction that owns the credential row.
func (o *OTPIssuer) Issue(ctx context.Context, tx dbx.DBTX, cred *models.Credential) (*OTP, error) {
	otp, err := o.Generate(o.ttl)
	if err != nil {
		return nil, err
	}
	if err := o.repomanager.Credentials(tx).SetOTP(ctx, cred.ID, otp.Hash, otp.ExpiresAt, otp.IssuedAt); err != nil {
		return nil, err
	}
	return otp, nil
}

// IssueCompany is Issue for the company contact email.
func (o *OTPIssuer) IssueCompany(ctx context.Context, tx dbx.DBTX, company *models.Company) (*OTP, error) {
	otp, err := o.Generate(o.companyTTL)
	if err != nil {
		return nil, err
	}
	if err := o.repomanager.Companies(tx).SetOTP(ctx, company.ID, otp.Hash, otp.ExpiresAt); err != nil {
		return nil, err
	}
	return otp, nil
}

// TTL is the lifetime of account codes.
func (o *OTPIssuer) TTL() time.Duration { return o.ttl }

func (o *OTPIssuer) CompanyTTL() time.Duration { return o.companyTTL }
