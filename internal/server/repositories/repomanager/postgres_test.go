package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/companies"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/documents"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/ratelimits"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/resettokens"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	var _ RepositoryManager = NewPostgresRepositoryManager()
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &PostgresRepositoryManager{}

	if _, ok := m.Credentials(db).(*credentials.PostgresRepository); !ok {
		t.Fatal("Credentials() is not a postgres repository")
	}
	if _, ok := m.RateLimits(db).(*ratelimits.PostgresRepository); !ok {
		t.Fatal("RateLimits() is not a postgres repository")
	}
	if _, ok := m.Companies(db).(*companies.PostgresRepository); !ok {
		t.Fatal("Companies() is not a postgres repository")
	}
	if _, ok := m.Profiles(db).(*profiles.PostgresRepository); !ok {
		t.Fatal("Profiles() is not a postgres repository")
	}
	if _, ok := m.ResetTokens(db).(*resettokens.PostgresRepository); !ok {
		t.Fatal("ResetTokens() is not a postgres repository")
	}
	if _, ok := m.Documents(db).(*documents.PostgresRepository); !ok {
		t.Fatal("Documents() is not a postgres repository")
	}
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}
