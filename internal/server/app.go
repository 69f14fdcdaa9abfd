// Package server initializes and runs the onboarding server: it opens the
// database, applies migrations, wires the services and starts the gRPC and
// HTTP transports plus the janitor until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/dbx"
	"github.com/dmitrijs2005/equitygate/internal/logging"
	"github.com/dmitrijs2005/equitygate/internal/server/config"
	"github.com/dmitrijs2005/equitygate/internal/server/email"
	"github.com/dmitrijs2005/equitygate/internal/server/httpapi"
	"github.com/dmitrijs2005/equitygate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/equitygate/internal/server/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	gs "github.com/dmitrijs2005/equitygate/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	access  *zap.Logger
	db      *sql.DB
	set     services.Set
	janitor *services.Janitor
}

// newLogger builds the configured backend. The returned zap logger feeds
// the HTTP access log.
func newLogger(c *config.Config) (logging.Logger, *zap.Logger, error) {
	switch c.LogBackend {
	case config.LogBackendZap:
		level, err := zap.ParseAtomicLevel(c.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		zc := zap.NewProductionConfig()
		zc.Level = level
		zl, err := zc.Build()
		if err != nil {
			return nil, nil, err
		}
		return logging.NewZapLogger(zl), zl, nil
	default:
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		zl, err := zap.NewProduction()
		if err != nil {
			return nil, nil, err
		}
		return logging.NewJSONLogger(os.Stdout, level), zl, nil
	}
}

// newSender logs mail when no SMTP host is configured.
func newSender(c *config.Config, logger logging.Logger) email.Sender {
	if c.SMTPHost == "" {
		logger.Warn(context.Background(), "SMTP host not configured, emails are only logged")
		return email.NewLogSender(logger)
	}
	smtp := email.NewSMTPSender(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword, c.SMTPFrom, c.SMTPTimeout)
	return email.NewRetryingSender(smtp, c.EmailRetryAttempts, c.EmailRetryDelay, logger)
}

// buildServices wires every service around one repository manager.
func buildServices(db *sql.DB, m repomanager.RepositoryManager, sender email.Sender, c *config.Config, logger logging.Logger) (services.Set, *services.Janitor) {
	limiter := services.NewRateLimiter(db, m, logger)
	otp := services.NewOTPIssuer(m, c.BcryptCost, c.OTPValidityDuration, c.CompanyOTPValidityDuration)

	set := services.Set{
		Registration:  services.NewRegistrationService(db, m, limiter, otp, sender, c, logger),
		Verification:  services.NewVerificationService(db, m, limiter, otp, sender, c, logger),
		Sessions:      services.NewSessionService(db, m, limiter, c, logger),
		PasswordReset: services.NewPasswordResetService(db, m, limiter, sender, c, logger),
		Documents:     services.NewDocumentService(db, m, c, logger),
	}
	return set, services.NewJanitor(db, m, c, logger)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, access, err := newLogger(c)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := dbx.OpenPostgres(ctx, c.DatabaseDSN, dbx.RetryPolicy{MaxRetries: 5, Base: 500 * time.Millisecond})
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	set, janitor := buildServices(db, m, newSender(c, logger), c, logger)

	return &App{config: c, logger: logger, access: access, db: db, set: set, janitor: janitor}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.set)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	gin.SetMode(gin.ReleaseMode)
	s := httpapi.NewHTTPServer(app.config, app.set, app.logger, app.access)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

// Run blocks until a signal arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.janitor.Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	_ = app.access.Sync()
	app.logger.Info(context.Background(), "App stopped")
}
