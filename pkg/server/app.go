package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"NewsScreener/internal/usecase"
	pkgch "NewsScreener/pkg/clickhouse"
	"NewsScreener/pkg/config"
	xhttp "NewsScreener/pkg/http"
	pkgkafka "NewsScreener/pkg/kafka"
	applogger "NewsScreener/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	orch       *usecase.ScanOrchestrator
	scheduler  *usecase.ScanScheduler
	handler    xhttp.Handler
	chClient   *pkgch.Client
	producer   *pkgkafka.Producer
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	orch *usecase.ScanOrchestrator,
	scheduler *usecase.ScanScheduler,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		orch:      orch,
		scheduler: scheduler,
		handler:   handler,
		chClient:  chClient,
		producer:  producer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start the market-hours scheduler
	go a.scheduler.Run(ctx)
	a.l.Info("scheduler started",
		applogger.Duration("interval", a.cfg.Schedule.Interval),
		applogger.String("market_open", a.cfg.Schedule.MarketOpen),
		applogger.String("market_close", a.cfg.Schedule.MarketClose),
		applogger.String("timezone", a.cfg.Schedule.Timezone),
	)

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel() // stop the scheduler before draining
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Drain any in-flight scan first so its results still get published.
	if err := a.orch.Shutdown(shutdownCtx); err != nil {
		a.l.Warn("scan drain error", applogger.Error(err))
	}

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	a.l.RemoveCollector()
	return nil
}
