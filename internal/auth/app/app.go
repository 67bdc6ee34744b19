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

	"github.com/aussiebroadwan/grc/internal/auth/domain"
	httpapi "github.com/aussiebroadwan/grc/internal/auth/http"
	"github.com/aussiebroadwan/grc/internal/auth/service"
	"github.com/aussiebroadwan/grc/internal/auth/store"
	"github.com/aussiebroadwan/grc/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/grc/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/grc/pkg/cryptox"
	"github.com/aussiebroadwan/grc/pkg/httpx"
	"github.com/aussiebroadwan/grc/pkg/kvx"
	"github.com/aussiebroadwan/grc/pkg/slogx"
	"github.com/getsentry/sentry-go"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db   store.Store
	kv   kvx.Store
	keys *AuthKeys

	clientIP *httpx.ClientIP

	// Services
	userService          *service.UserService
	tokenService         *service.TokenService
	loginService         *service.LoginService
	sessionService       *service.SessionService
	rbacService          *service.RBACService
	passwordResetService *service.PasswordResetService
	bootstrapService     *service.BootstrapService
	refreshLimiter       *service.AttemptLimiter
	housekeepingService  *service.HousekeepingService

	sentryEnabled bool

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "grc-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}
	ctx := context.Background()

	if err := app.initSentry(); err != nil {
		return nil, err
	}

	if err := app.initPepper(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	kv, err := InitKV(ctx, app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize kv store: %w", err)
	}
	app.kv = kv

	keys, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keys = keys

	clientIP, err := httpx.NewClientIP(app.cfg.TrustedProxies)
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	app.clientIP = clientIP

	app.initServices()

	if err := app.seedAdministrator(ctx); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

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
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeStores()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slog.Any("err", err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slog.Any("err", err))
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if app.sentryEnabled {
		sentry.Flush(2 * time.Second)
	}

	if err := app.kv.Close(); err != nil {
		app.logger.Error("error closing kv store", slog.Any("err", err))
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", slog.Any("err", err))
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeStores() {
	if app.kv != nil {
		_ = app.kv.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}

// initSentry enables error reporting when a DSN is configured. Without one
// every capture is a no-op.
func (app *Application) initSentry() error {
	if app.cfg.SentryDSN == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              app.cfg.SentryDSN,
		Environment:      app.cfg.Env,
		Release:          BuildVersion,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	app.sentryEnabled = true
	app.logger.Info("sentry error reporting enabled")
	return nil
}

// initPepper installs the password hashing pepper, preferring the literal
// value over the file.
func (app *Application) initPepper() error {
	if app.cfg.Pepper != "" {
		cryptox.SetPepper(app.cfg.Pepper)
		return nil
	}
	if err := cryptox.LoadPepper(app.cfg.PepperFile); err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	return nil
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case "postgres":
		if app.cfg.DatabaseURL == "" {
			return errors.New("AUTH_DATABASE_URL is required for the postgres driver")
		}
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	case "sqlite", "":
		host := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(host)
	default:
		return fmt.Errorf("unknown database driver %q", app.cfg.DatabaseDriver)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.userService = &service.UserService{Store: app.db}

	app.tokenService = &service.TokenService{
		Signer:     app.keys.Signer,
		Verifier:   app.keys.Verifier,
		Store:      app.db,
		Users:      app.userService,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	lockout := &service.LockoutService{
		KV:          app.kv,
		MaxFailures: app.cfg.LoginMaxFailures,
		Duration:    app.cfg.LoginLockoutDuration,
	}

	app.sessionService = &service.SessionService{KV: app.kv, TTL: app.cfg.SessionTTL}

	app.loginService = &service.LoginService{
		Users:   app.userService,
		Tokens:  app.tokenService,
		Lockout: lockout,
		IPLimiter: &service.AttemptLimiter{
			KV:     app.kv,
			Prefix: service.LoginIPPrefix,
			Limit:  app.cfg.LoginIPMaxAttempts,
			Window: app.cfg.LoginIPWindow,
		},
		Sessions:            app.sessionService,
		LicenseCheckEnabled: app.cfg.LicenseCheckEnabled,
	}
	if app.cfg.LicenseCheckEnabled {
		if app.cfg.LicenseServiceURL == "" {
			app.logger.Warn("license check enabled without LICENSE_SERVICE_URL - logins with a license key will fail")
		}
		app.loginService.License = service.NewHTTPLicenseVerifier(
			app.cfg.LicenseServiceURL,
			app.cfg.LicenseServiceToken,
			app.cfg.LicenseTimeout,
		)
	}

	app.refreshLimiter = &service.AttemptLimiter{
		KV:     app.kv,
		Prefix: service.RefreshIPPrefix,
		Limit:  app.cfg.RefreshIPMaxAttempts,
		Window: app.cfg.RefreshIPWindow,
	}

	app.rbacService = &service.RBACService{
		Store:    app.db,
		KV:       app.kv,
		CacheTTL: app.cfg.RBACCacheTTL,
	}

	app.passwordResetService = &service.PasswordResetService{
		Store:    app.db,
		Users:    app.userService,
		Lockout:  lockout,
		Notifier: service.LogResetNotifier{},
		Issuer:   app.cfg.Issuer,
		TTL:      app.cfg.PasswordResetTTL,
	}

	app.bootstrapService = &service.BootstrapService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	// Redis expires keys itself; only the in-process store needs sweeping.
	if sweeper, ok := app.kv.(service.Sweeper); ok {
		app.housekeepingService.KV = sweeper
	}
}

// seedAdministrator creates the first GRC Administrator when the bootstrap
// variables are set and the store has no users yet.
func (app *Application) seedAdministrator(ctx context.Context) error {
	if app.cfg.BootstrapUsername == "" {
		return nil
	}

	done, err := app.bootstrapService.IsBootstrapped(ctx)
	if err != nil {
		return fmt.Errorf("failed to check bootstrap state: %w", err)
	}
	if done {
		app.logger.Debug("store already has users, skipping administrator seed")
		return nil
	}

	id, err := app.bootstrapService.Bootstrap(ctx, domain.BootstrapData{
		AdminUsername: app.cfg.BootstrapUsername,
		AdminEmail:    app.cfg.BootstrapEmail,
		AdminPassword: app.cfg.BootstrapPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to seed administrator: %w", err)
	}

	app.logger.Info("seeded GRC administrator", "user_id", id, "username", app.cfg.BootstrapUsername)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.db, app.kv, app.logger)

	// Wire services to router
	router.UserService = app.userService
	router.TokenService = app.tokenService
	router.LoginService = app.loginService
	router.SessionService = app.sessionService
	router.RBACService = app.rbacService
	router.PasswordResetService = app.passwordResetService
	router.RefreshLimiter = app.refreshLimiter
	router.BypassPaths = app.cfg.BypassPaths
	router.AllowedOrigins = app.cfg.AllowedOrigins
	router.ClientIP = app.clientIP
	router.SessionCookie = httpapi.SessionCookie{
		Name:   app.cfg.SessionCookieName,
		Secure: app.cfg.SessionCookieSecure,
		TTL:    app.cfg.SessionTTL,
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
