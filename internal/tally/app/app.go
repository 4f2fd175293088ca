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

	"github.com/morninghq/tally/internal/tally/export"
	httpapi "github.com/morninghq/tally/internal/tally/http"
	"github.com/morninghq/tally/internal/tally/mail"
	"github.com/morninghq/tally/internal/tally/service"
	"github.com/morninghq/tally/internal/tally/store"
	"github.com/morninghq/tally/internal/tally/store/drivers/sqlite"
	"github.com/morninghq/tally/pkg/cryptox"
	"github.com/morninghq/tally/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the tally service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	// Services
	sessionService      *service.SessionService
	adminSessionService *service.AdminSessionService
	verificationService *service.VerificationService
	accountService      *service.AccountService
	ledgerService       *service.LedgerService
	reportingService    *service.ReportingService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tally",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("tally service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		if app.cfg.TLSCertFile != "" && app.cfg.TLSKeyFile != "" {
			serverErrors <- app.server.ListenAndServeTLS(app.cfg.TLSCertFile, app.cfg.TLSKeyFile)
		} else {
			serverErrors <- app.server.ListenAndServe()
		}
	}()

	// Setup signal handling for graceful shutdown
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
	app.logger.Info("shutting down tally service...")

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

	app.logger.Info("tally service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
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

// initServices initializes all business logic services.
func (app *Application) initServices() {
	mailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUser,
		Password: app.cfg.SMTPPass,
		From:     app.cfg.SMTPFrom,
	})
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("no SMTP relay configured; registration codes cannot be delivered")
	}

	app.sessionService = &service.SessionService{Store: app.db}
	app.adminSessionService = &service.AdminSessionService{
		Store:    app.db,
		Username: app.cfg.AdminUser,
		Password: app.cfg.AdminPass,
	}
	app.verificationService = &service.VerificationService{
		Store:  app.db,
		Mailer: mailer,
	}
	app.accountService = &service.AccountService{
		Store:        app.db,
		Sessions:     app.sessionService,
		Verification: app.verificationService,
	}
	app.ledgerService = &service.LedgerService{Store: app.db}
	app.reportingService = &service.ReportingService{
		Store:       app.db,
		Spreadsheet: export.XLSXWriter{},
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	// Wire services to router
	router.SessionService = app.sessionService
	router.AdminSessionService = app.adminSessionService
	router.VerificationService = app.verificationService
	router.AccountService = app.accountService
	router.LedgerService = app.ledgerService
	router.ReportingService = app.reportingService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
