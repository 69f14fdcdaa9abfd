// Package httpapi exposes the onboarding services as a JSON API over gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/logging"
	"github.com/dmitrijs2005/equitygate/internal/server/config"
	"github.com/dmitrijs2005/equitygate/internal/server/services"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address string
	router  *gin.Engine
	limiter *ipLimiter
	logger  logging.Logger
}

// NewHTTPServer builds the router. access receives one line per request; nil
// disables access logging.
func NewHTTPServer(cfg *config.Config, set services.Set, l logging.Logger, access *zap.Logger) *HTTPServer {
	s := &HTTPServer{
		address: cfg.EndpointAddrHTTP,
		limiter: newIPLimiter(cfg.HTTPRequestRate, cfg.HTTPRequestBurst),
		logger:  l.With("module", "http_server"),
	}
	a := &API{services: set, logger: s.logger, now: time.Now}
	s.router = s.newRouter(cfg, a, access)
	return s
}

func (s *HTTPServer) newRouter(cfg *config.Config, a *API, access *zap.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(gin.Recovery())
	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders: []string{"Content-Length", "Retry-After"},
			MaxAge:        12 * time.Hour,
		}))
	}
	if access != nil {
		router.Use(ginzap.GinzapWithConfig(access, &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead
			},
			Context: func(c *gin.Context) []zapcore.Field {
				if claims := claimsFrom(c); claims != nil {
					return []zapcore.Field{zap.String("credential_id", claims.Subject)}
				}
				return nil
			},
		}))
	}
	router.Use(s.limiter.middleware(), requestTimeout(cfg.RequestTimeout))

	jwt := bearerAuth(a.services.Sessions)

	v1 := router.Group("/api/v1")
	{
		// HEAD /api/v1/heartbeat	-> liveness
		v1.HEAD("/heartbeat", a.Heartbeat)
	}

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", a.Register)
		authGroup.POST("/otp/resend", a.ResendOTP)
		authGroup.POST("/verify", a.Verify)
		authGroup.POST("/login", a.Login)
		authGroup.POST("/password/forgot", a.ForgotPassword)
		authGroup.POST("/password/reset", a.ResetPassword)
	}

	companies := v1.Group("/companies/:id", jwt)
	{
		companies.POST("/verification", a.RequestCompanyVerification)
		companies.POST("/verification/confirm", a.ConfirmCompanyVerification)
		companies.POST("/documents", a.PresignUpload)
		companies.GET("/documents", a.ListDocuments)
	}

	// GET /api/v1/documents/:id/url	-> presigned download link
	v1.GET("/documents/:id/url", jwt, a.PresignDownload)

	return router
}

// Handler exposes the router, mainly for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.limiter.run(ctx, time.Minute)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
