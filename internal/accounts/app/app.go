package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aperohq/accounts/internal/accounts/http"
	"github.com/aperohq/accounts/internal/accounts/identity"
	"github.com/aperohq/accounts/internal/accounts/service"
	"github.com/aperohq/accounts/internal/accounts/store"
	"github.com/aperohq/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aperohq/accounts/pkg/jwtx"
	"github.com/aperohq/accounts/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the accounts service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	tokenService  *service.TokenService
	userService   *service.UserService
	authService   *service.AuthService
	googleService *service.GoogleService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "accounts-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("accounts service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down accounts service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("accounts service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() error {
	app.tokenService = &service.TokenService{
		Access:  jwtx.NewSigner([]byte(app.cfg.AccessTokenSecret), app.cfg.Issuer, app.cfg.AccessTokenTTL),
		Refresh: jwtx.NewSigner([]byte(app.cfg.RefreshTokenSecret), app.cfg.Issuer, app.cfg.RefreshTokenTTL),
	}
	app.userService = &service.UserService{Store: app.db}
	app.authService = &service.AuthService{
		Users:  app.userService,
		Tokens: app.tokenService,
	}

	// Google login stays disabled unless a client id is configured.
	if app.cfg.GoogleOAuthClientID != "" {
		verifier, err := identity.NewGoogleVerifier(app.cfg.GoogleOAuthClientID)
		if err != nil {
			return fmt.Errorf("failed to initialize google verifier: %w", err)
		}
		app.googleService = &service.GoogleService{
			Users:    app.userService,
			Tokens:   app.tokenService,
			Verifier: verifier,
		}
		app.logger.Info("google login enabled")
	}

	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)
	router.AuthService = app.authService
	router.GoogleService = app.googleService
	router.UserService = app.userService
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
