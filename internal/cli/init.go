// Package cli provides the initialization steps shared by cmd/finbot and
// cmd/journal-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finbot/internal/amqp"
	"finbot/internal/config"
	"finbot/internal/log"
	"finbot/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(cfg.LogLevel)
	logCfg.Format = cfg.LogFormat
	logCfg.Component = component

	logger := log.New(logCfg)
	log.SetDefault(logger)
	return logger
}

// MustValidate exits the process when validate reports a problem.
func MustValidate(logger *log.Logger, validate func() error) {
	if err := validate(); err != nil {
		logger.Error("Configuration validation failed", log.NewFields().
			WithError(err).
			WithErrorType(log.ErrorTypeConfiguration).
			ToSlice()...)
		os.Exit(1)
	}
}

// InitJournal opens the journal database, running migrations.
// Returns the repository or exits the process on failure.
func InitJournal(logger *log.Logger, dbPath string) *storage.JournalRepository {
	repo, err := storage.NewJournalRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize journal database", log.NewFields().
			WithComponent(log.ComponentStorage).
			WithError(err).
			WithErrorType(log.ErrorTypeDatabase).
			ToSlice()...)
		os.Exit(1)
	}
	return repo
}

// InitAMQP connects to the broker. When required is false a failed
// connection is logged and nil is returned, so the caller runs without events.
func InitAMQP(logger *log.Logger, cfg *config.Config, required bool) *amqp.Client {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err == nil {
		logger.Info("Connected to AMQP",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
		return client
	}

	fields := log.NewFields().
		WithComponent(log.ComponentAMQP).
		WithError(err).
		WithErrorType(log.ErrorTypeNetwork)
	if required {
		logger.Error("Failed to connect to AMQP", fields.ToSlice()...)
		os.Exit(1)
	}
	logger.Warn("AMQP unavailable, ledger events will not be published", fields.ToSlice()...)
	return nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}()
	return ctx, stop
}
