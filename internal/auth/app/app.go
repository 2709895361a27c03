package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/delivery"
	httpapi "github.com/aussiebroadwan/nopass/internal/auth/http"
	"github.com/aussiebroadwan/nopass/internal/auth/service"
	"github.com/aussiebroadwan/nopass/internal/auth/session"
	"github.com/aussiebroadwan/nopass/internal/auth/store"
	"github.com/aussiebroadwan/nopass/internal/auth/store/drivers/mongo"
	"github.com/aussiebroadwan/nopass/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/nopass/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/nopass/pkg/jwtx"
	"github.com/aussiebroadwan/nopass/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the nopass service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	signer *jwtx.EdDSASigner

	// Services
	gate                *service.AuthenticationGate
	sessions            *session.Manager
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "nopass",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	db, err := OpenStore(context.Background(), cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	signer, err := InitSessionSigner(cfg, app.logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize session keys: %w", err)
	}
	app.signer = signer

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("nopass starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"database", app.cfg.DatabaseDriver,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		_ = app.db.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down nopass...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("nopass stopped")
	return nil
}

// OpenStore connects the configured driver and applies its migrations.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	var (
		db  store.Store
		err error
	)

	switch cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
	case "mongo":
		db, err = mongo.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
	case "sqlite", "":
		db, err = sqlite.NewStore(sqlite.DSN(cfg.DatabaseFile))
	default:
		err = fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "driver", cfg.DatabaseDriver)
	return db, nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	var mailer delivery.Mailer
	if app.cfg.SMTPAddr != "" {
		mailer = &delivery.SMTPMailer{
			Addr:     app.cfg.SMTPAddr,
			Username: app.cfg.SMTPUsername,
			Password: app.cfg.SMTPPassword,
		}
	} else {
		app.logger.Warn("no SMTP server configured, login codes will be logged")
		mailer = &delivery.LogMailer{Logger: app.logger}
	}

	app.gate = &service.AuthenticationGate{
		Store:  app.db,
		Config: app.cfg.ServiceConfig(),
		Deliverer: &delivery.EmailDeliverer{
			Mailer:     mailer,
			From:       app.cfg.MailFrom,
			SiteName:   app.cfg.SiteName,
			Expiration: app.cfg.LoginCodeTimeout,
		},
	}

	app.sessions = &session.Manager{
		Signer:     app.signer,
		Verifier:   jwtx.NewVerifierEdDSA(app.signer.Public(), app.cfg.Issuer, 30*time.Second),
		Issuer:     app.cfg.Issuer,
		CookieName: app.cfg.SessionCookie,
		TTL:        app.cfg.SessionTTL,
		Secure:     app.cfg.CookieSecure,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.gate.Policy(),
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.gate,
		app.sessions,
		app.db,
		httpapi.Options{
			SiteName:          app.cfg.SiteName,
			BaseURL:           app.cfg.BaseURL,
			AllowedHosts:      app.cfg.AllowedHosts,
			LoginOnGet:        app.cfg.LoginOnGet,
			LoginRedirectURL:  app.cfg.LoginRedirectURL,
			LogoutRedirectURL: app.cfg.LogoutRedirectURL,
		},
		BuildVersion,
		app.logger,
	)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Handler returns the application's HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}
