// Package services contains server-side business logic: registration, OTP
// verification, sessions, password reset, onboarding documents and the
// background janitor. Transports call services; services call repositories
// vended by a repomanager.RepositoryManager, mostly inside dbx transactions.
package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/dmitrijs2005/equitygate/internal/dbx"
	"github.com/dmitrijs2005/equitygate/internal/logging"
	"github.com/dmitrijs2005/equitygate/internal/server/config"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/repomanager"
)

// Rate limit actions. The counter key is "<action>:<subject>".
const (
	ActionLogin      = "login"
	ActionRegister   = "register"
	ActionVerify     = "verify"
	ActionOTPResend  = "otp_resend"
	ActionReset      = "reset"
	ActionCompanyOTP = "company_otp"
)

func rateKey(action, subject string) string {
	return action + ":" + subject
}

// RateLimitResult describes one decision. ResetAt is when the current
// window ends.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter is a fixed-window counter persisted in the database, so the
// limits hold across server instances.
type RateLimiter struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	retry       dbx.RetryPolicy
	now         func() time.Time
}

func NewRateLimiter(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *RateLimiter {
	return &RateLimiter{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "ratelimit"),
		retry:       dbx.DefaultRetryPolicy,
		now:         time.Now,
	}
}

// Check records an attempt for identifier and reports whether it is within
// maxAttempts per window. A denied attempt is not counted. On store errors
// the result is a denial and the error is returned.
func (r *RateLimiter) Check(ctx context.Context, identifier string, maxAttempts int, window time.Duration) (*RateLimitResult, error) {
	now := r.now()
	res := &RateLimitResult{Limit: maxAttempts}

	err := dbx.WithTxRetry(ctx, r.db, nil, r.retry, func(ctx context.Context, tx dbx.DBTX) error {
		repo := r.repomanager.RateLimits(tx)

		counter, err := repo.Acquire(ctx, identifier, now)
		if err != nil {
			return err
		}

		if counter.Count == 0 || now.After(counter.WindowStart.Add(window)) {
			if err := repo.Reset(ctx, identifier, 1, now); err != nil {
				return err
			}
			res.Allowed = true
			res.Remaining = maxAttempts - 1
			res.ResetAt = now.Add(window)
			return nil
		}

		res.ResetAt = counter.WindowStart.Add(window)
		if counter.Count >= maxAttempts {
			res.Allowed = false
			res.Remaining = 0
			return nil
		}

		count, err := repo.Increment(ctx, identifier)
		if err != nil {
			return err
		}
		res.Allowed = true
		res.Remaining = max(maxAttempts-count, 0)
		return nil
	})
	if err != nil {
		r.logger.Error(ctx, "rate limit check failed", "key", identifier, "error", err)
		return &RateLimitResult{Allowed: false, Limit: maxAttempts}, err
	}

	if !res.Allowed {
		r.logger.Warn(ctx, "rate limit exceeded", "key", identifier, "reset_at", res.ResetAt)
	}
	return res, nil
}

// Guard applies policy to "<action>:<subject>" and returns a
// *common.RateLimitError when the attempt is denied.
func (r *RateLimiter) Guard(ctx context.Context, action, subject string, policy config.RateLimitPolicy) error {
	res, err := r.Check(ctx, rateKey(action, subject), policy.MaxAttempts, policy.Window)
	if err != nil {
		return err
	}
	if !res.Allowed {
		return &common.RateLimitError{Limit: res.Limit, ResetAt: res.ResetAt}
	}
	return nil
}
