package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradesparky/pricewatch/internal/config"
	"github.com/tradesparky/pricewatch/internal/crawler"
	"github.com/tradesparky/pricewatch/internal/handlers"
	"github.com/tradesparky/pricewatch/internal/ingest"
	"github.com/tradesparky/pricewatch/internal/notify"
	"github.com/tradesparky/pricewatch/internal/router"
	"github.com/tradesparky/pricewatch/internal/store"
	"github.com/tradesparky/pricewatch/internal/sweep"
	"github.com/tradesparky/pricewatch/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// App represents the main application
type App struct {
	config  *config.Config
	logger  *zap.Logger
	store   store.Store
	sweeper *sweep.Sweeper
	server  *http.Server
}

func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	// Initialize telemetry
	tel, err := telemetry.NewTelemetry(logger)
	if err != nil {
		return nil, err
	}
	if err := ingest.InitIngestMetrics(tel.Meter); err != nil {
		return nil, err
	}

	// Use the factory to create the store provider
	factory := store.NewFactory(logger, tel)
	st, err := factory.CreateStore(cfg.StoreConfig)
	if err != nil {
		return nil, err
	}

	// Crawl API client; the mock keeps local runs offline-safe.
	var crawlClient crawler.Client
	if cfg.CrawlAPIURL != "" {
		crawlClient = crawler.NewHTTPClient(cfg.CrawlAPIURL, cfg.CrawlAPIKey, logger)
	} else {
		logger.Info("no crawl API configured, using mock client")
		crawlClient = crawler.NewMockClient()
	}

	// Email notifier; failures are non-fatal on the webhook path.
	var notifier notify.Notifier
	if cfg.EmailAPIURL != "" {
		notifier = notify.NewEmailNotifier(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, logger)
	} else {
		logger.Info("no email API configured, notifications disabled")
		notifier = notify.NopNotifier{}
	}

	pipeline := ingest.NewPipeline(st, logger, cfg.BatchSize)

	sweeper, err := sweep.NewSweeper(st, logger, tel.Meter)
	if err != nil {
		return nil, err
	}

	// Initialize router with handlers
	limiter := rate.NewLimiter(rate.Limit(cfg.RPSLimit), cfg.RPSBurst)
	handlerList := []router.Handler{
		handlers.NewScrapeHandler(pipeline, crawlClient, sweeper, logger),
		handlers.NewCatalogHandler(st, logger),
		handlers.NewJobsHandler(st, logger),
		handlers.NewWebhookHandler(notifier, logger),
	}
	appRouter := router.NewRouter(limiter, tel, logger, handlerList)
	server := appRouter.CreateServer(":" + cfg.Port)

	return &App{
		config:  cfg,
		logger:  logger,
		store:   st,
		sweeper: sweeper,
		server:  server,
	}, nil
}

// Start starts the server and the sweep schedule
func (app *App) start() error {
	if err := app.sweeper.Schedule(app.config.SweepSchedule); err != nil {
		return err
	}

	app.logger.Info("starting server", zap.String("port", app.config.Port))
	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the application
func (app *App) stop() error {
	app.logger.Info("shutting down server...")
	app.sweeper.Stop()

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	if err := app.store.Close(); err != nil {
		app.logger.Error("failed to close store", zap.Error(err))
	}

	app.logger.Info("server exited gracefully")
	return nil
}

// Run starts the application and waits for shutdown signals
func (app *App) Run() error {
	// Start the server
	if err := app.start(); err != nil {
		return err
	}

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wait for shutdown signal
	<-ctx.Done()

	// Stop the application
	return app.stop()
}
