package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finbot/internal/bot"
	"finbot/internal/cache"
	"finbot/internal/cli"
	"finbot/internal/config"
	apphttp "finbot/internal/http"
	"finbot/internal/ledger"
	"finbot/internal/log"
	"finbot/internal/ratelimit"
	"finbot/internal/services"
	gsheet "finbot/internal/sheets/google"
)

const cleanupInterval = time.Minute

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.MustValidate(logger, cfg.ValidateBot)

	logger.Info("Starting finbot",
		log.FieldOperation, log.OpStartup,
		"workers", cfg.BotWorkers,
		"publishing", cfg.PublishingEnabled(),
		"sheets", cfg.SheetsEnabled())

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	// Ledger state lives only in memory for the lifetime of the process
	store := ledger.NewStore()

	serviceOpts := []services.ServiceOption{
		services.WithReportCache(cfg.ReportCacheSize, cfg.ReportCacheTTL),
	}
	if cfg.PublishingEnabled() {
		if client := cli.InitAMQP(logger, cfg, false); client != nil {
			defer client.Close()
			serviceOpts = append(serviceOpts, services.WithPublisher(client))
		}
	}
	svc := services.NewLedgerService(store, logger, serviceOpts...)

	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
	dispatcherOpts := []bot.Option{bot.WithRateLimiter(limiter)}
	if cfg.SheetsEnabled() {
		exporter, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleExportSheetPrefix)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", log.NewFields().
				WithComponent(log.ComponentSheets).
				WithError(err).
				WithErrorType(log.ErrorTypeConfiguration).
				ToSlice()...)
			os.Exit(1)
		}
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		dispatcherOpts = append(dispatcherOpts, bot.WithRowExporter(exporter))
	}
	dispatcher := bot.NewDispatcher(svc, logger, dispatcherOpts...)

	telegram, err := bot.NewTelegramBot(cfg.TelegramBotToken, cfg.TelegramPollTimeout, cfg.BotWorkers, dispatcher, logger)
	if err != nil {
		logger.Error("Failed to start Telegram bot", log.NewFields().
			WithComponent(log.ComponentBot).
			WithError(err).
			WithErrorType(log.ErrorTypeNetwork).
			ToSlice()...)
		os.Exit(1)
	}

	health := apphttp.NewServer(":"+cfg.HealthPort, telegram.Ready, svc, logger,
		apphttp.WithRateLimitStats(limiter))

	cacheLogger := logger.WithComponent(log.ComponentCache)
	caches := cache.NewManager(func(removed int) {
		cacheLogger.Debug("Expired reports removed", "removed", removed)
	})
	if reports := svc.ReportCache(); reports != nil {
		caches.Register(reports)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return telegram.Run(gctx) })
	g.Go(func() error { return health.Run(gctx) })
	g.Go(func() error { return caches.Run(gctx, cleanupInterval) })
	g.Go(func() error { return limiter.Run(gctx, cleanupInterval) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("finbot stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("finbot stopped", log.FieldOperation, log.OpShutdown, "users", svc.Users())
}
