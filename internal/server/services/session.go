package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/dmitrijs2005/equitygate/internal/cryptox"
	"github.com/dmitrijs2005/equitygate/internal/logging"
	"github.com/dmitrijs2005/equitygate/internal/server/auth"
	"github.com/dmitrijs2005/equitygate/internal/server/config"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/repomanager"
)

// Session is a signed bearer token for a verified credential.
type Session struct {
	Token        string
	ExpiresAt    time.Time
	CredentialID string
	Role         models.Role
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// dummyHash is compared against when the email is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = cryptox.HashSecret("equitygate-dummy-password", 10)

// SessionService authenticates credentials and mints JWTs.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	limiter     Limiter
	config      *config.Config
	logger      logging.Logger
	now         func() time.Time
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, limiter Limiter, cfg *config.Config, logger logging.Logger) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		limiter:     limiter,
		config:      cfg,
		logger:      logger.With("module", "session"),
		now:         time.Now,
	}
}

// Login is rate limited before anything about the account is revealed.
// Unknown email and wrong password both yield common.ErrInvalidCredentials;
// the specific cause only goes to the log.
func (s *SessionService) Login(ctx context.Context, address, password string) (*Session, error) {
	in := loginInput{Email: common.NormalizeEmail(address), Password: password}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if err := s.limiter.Guard(ctx, ActionLogin, in.Email, s.config.LoginLimit); err != nil {
		return nil, err
	}

	storeCtx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	cred, err := s.repomanager.Credentials(s.db).FindByEmail(storeCtx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.CheckSecret(dummyHash, in.Password)
			s.logger.Info(ctx, "login failed", "email", in.Email, "reason", "unknown email")
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "credential lookup failed", "email", in.Email, "error", err)
		return nil, err
	}

	if !cryptox.CheckSecret(cred.PasswordHash, in.Password) {
		s.logger.Info(ctx, "login failed", "email", in.Email, "reason", "wrong password")
		return nil, common.ErrInvalidCredentials
	}

	if !cred.Verified() && s.config.RequireVerifiedLogin {
		s.logger.Info(ctx, "login failed", "email", in.Email, "reason", "not verified")
		return nil, common.ErrAccountNotVerified
	}

	token, expiresAt, err := auth.GenerateToken(cred.ID, string(cred.Role), s.tokenParams(), s.now())
	if err != nil {
		s.logger.Error(ctx, "token signing failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "login succeeded", "credential_id", cred.ID)
	return &Session{Token: token, ExpiresAt: expiresAt, CredentialID: cred.ID, Role: cred.Role}, nil
}

// Authenticate parses a bearer token issued by Login.
func (s *SessionService) Authenticate(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.tokenParams())
}

func (s *SessionService) tokenParams() auth.Params {
	return auth.Params{
		Secret:   []byte(s.config.SecretKey),
		Issuer:   s.config.JWTIssuer,
		Audience: s.config.JWTAudience,
		TTL:      s.config.TokenValidityDuration,
	}
}
