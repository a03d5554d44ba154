package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/mailforge/mailforge/config"
	"github.com/mailforge/mailforge/internal/domain"
	apihttp "github.com/mailforge/mailforge/internal/http"
	"github.com/mailforge/mailforge/internal/repository"
	"github.com/mailforge/mailforge/internal/service"
	"github.com/mailforge/mailforge/pkg/logger"
	"github.com/mailforge/mailforge/pkg/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var appLogger logger.Logger
	if cfg.IsDevelopment() {
		appLogger = logger.NewConsoleLogger(cfg.LogLevel)
	} else {
		appLogger = logger.NewLoggerWithLevel(cfg.LogLevel)
	}

	if err := runServer(cfg, appLogger); err != nil {
		appLogger.WithField("error", err.Error()).Fatal("Server exited with error")
		os.Exit(1)
	}
}

// runServer wires the repository, service and HTTP layers and blocks until
// shutdown. Development mode runs against the in-memory store so the editor
// works without a database.
func runServer(cfg *config.Config, appLogger logger.Logger) error {
	repo, cleanup, err := newRepository(cfg, appLogger)
	if err != nil {
		return err
	}
	defer cleanup()

	smtpMailer := mailer.NewSMTPMailer(&mailer.Config{
		SMTPHost:     cfg.SMTP.Host,
		SMTPPort:     cfg.SMTP.Port,
		SMTPUsername: cfg.SMTP.Username,
		SMTPPassword: cfg.SMTP.Password,
		FromEmail:    cfg.SMTP.FromEmail,
		FromName:     cfg.SMTP.FromName,
	})

	templateService := service.NewTemplateService(repo, smtpMailer, appLogger, nil)

	mux := nethttp.NewServeMux()
	apihttp.NewTemplateHandler(templateService, appLogger).RegisterRoutes(mux)

	server := &nethttp.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverError := make(chan error, 1)
	go func() {
		appLogger.WithField("addr", server.Addr).Info("Server started")
		serverError <- server.ListenAndServe()
	}()

	select {
	case err := <-serverError:
		if err != nil && err != nethttp.ErrServerClosed {
			appLogger.WithField("error", err.Error()).Error("Server error")
			return err
		}
		return nil
	case sig := <-shutdown:
		appLogger.WithField("signal", sig.String()).Info("Shutdown signal received - starting graceful shutdown")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			appLogger.WithField("error", err.Error()).Error("Error during graceful shutdown")
			return err
		}
		appLogger.Info("Server shut down gracefully")
		return nil
	}
}

func newRepository(cfg *config.Config, appLogger logger.Logger) (domain.TemplateRepository, func(), error) {
	if cfg.IsDevelopment() {
		appLogger.Info("Using in-memory template store")
		return repository.NewMemoryTemplateRepository(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return repository.NewTemplateRepository(db), func() { db.Close() }, nil
}
