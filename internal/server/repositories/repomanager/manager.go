package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/equitygate/internal/dbx"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/companies"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/documents"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/ratelimits"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/resettokens"
)

// RepositoryManager vends repositories bound to a DBTX, so the same service
// code can run against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Credentials(db dbx.DBTX) credentials.Repository
	RateLimits(db dbx.DBTX) ratelimits.Repository
	Companies(db dbx.DBTX) companies.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	Documents(db dbx.DBTX) documents.Repository
}
