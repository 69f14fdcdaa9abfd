package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/logging"
	"github.com/dmitrijs2005/equitygate/internal/server/config"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/repomanager"
)

// rateLimitGrace keeps counters around after their window ends.
const rateLimitGrace = 24 * time.Hour

// SweepReport counts rows touched by one Sweep.
type SweepReport struct {
	CredentialOTPs int64
	CompanyOTPs    int64
	ResetTokens    int64
	RateLimits     int64
	StalePending   int64
}

// Janitor purges expired codes, tokens, counters and abandoned registrations.
type Janitor struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	logger      logging.Logger
	now         func() time.Time
}

func NewJanitor(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *Janitor {
	return &Janitor{
		db:          db,
		repomanager: m,
		config:      cfg,
		logger:      logger.With("module", "janitor"),
		now:         time.Now,
	}
}

// Run sweeps every JanitorInterval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.config.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info(ctx, "janitor stopped")
			return
		case <-ticker.C:
			if _, err := j.Sweep(ctx); err != nil {
				j.logger.Error(ctx, "sweep failed", "error", err)
			}
		}
	}
}

// Sweep runs every purge once. Each purge is independent; the returned
// error joins the failures.
func (j *Janitor) Sweep(ctx context.Context) (*SweepReport, error) {
	now := j.now()
	r := &SweepReport{}
	var errs []error

	collect := func(n int64, err error, dst *int64) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = n
	}

	n, err := j.repomanager.Credentials(j.db).PurgeExpiredOTP(ctx, now)
	collect(n, err, &r.CredentialOTPs)

	n, err = j.repomanager.Companies(j.db).PurgeExpiredOTP(ctx, now)
	collect(n, err, &r.CompanyOTPs)

	n, err = j.repomanager.ResetTokens(j.db).DeleteExpired(ctx, now)
	collect(n, err, &r.ResetTokens)

	n, err = j.repomanager.RateLimits(j.db).DeleteExpired(ctx, now.Add(-j.config.LongestRateLimitWindow()-rateLimitGrace))
	collect(n, err, &r.RateLimits)

	if j.config.PendingTTL > 0 {
		n, err = j.repomanager.Credentials(j.db).DeleteStalePending(ctx, now.Add(-j.config.PendingTTL))
		collect(n, err, &r.StalePending)
	}

	j.logger.Info(ctx, "sweep finished",
		"credential_otps", r.CredentialOTPs,
		"company_otps", r.CompanyOTPs,
		"reset_tokens", r.ResetTokens,
		"rate_limits", r.RateLimits,
		"stale_pending", r.StalePending,
	)
	return r, errors.Join(errs...)
}
