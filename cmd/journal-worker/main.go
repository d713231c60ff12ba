package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finbot/internal/cli"
	"finbot/internal/config"
	"finbot/internal/log"
	"finbot/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	cli.MustValidate(logger, cfg.ValidateWorker)

	logger.Info("Starting journal-worker",
		log.FieldOperation, log.OpStartup,
		"db_path", cfg.JournalDBPath,
		"queue", cfg.AMQPQueue)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	journal := cli.InitJournal(logger, cfg.JournalDBPath)
	defer journal.Close()

	amqpClient := cli.InitAMQP(logger, cfg, true)
	defer amqpClient.Close()

	journalWorker := worker.NewJournalWorker(journal)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeLedgerEvents(gctx, journalWorker.HandleLedgerEvent)
	})
	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := journal.Ping(gctx); err != nil {
					logger.Warn("Journal database unreachable", log.NewFields().
						WithComponent(log.ComponentStorage).
						WithError(err).
						WithErrorType(log.ErrorTypeDatabase).
						ToSlice()...)
					continue
				}
				n, err := journal.CountEvents(gctx)
				if err != nil {
					logger.Warn("Failed to count journal events", log.FieldError, err)
					continue
				}
				logger.Info("Journal status", "events", n)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("journal-worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("journal-worker stopped", log.FieldOperation, log.OpShutdown)
}
