package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/snow-season-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/snow-season-etl/internal/app"
	"github.com/couchcryptid/snow-season-etl/internal/config"
	"github.com/couchcryptid/snow-season-etl/internal/observability"
	"github.com/couchcryptid/snow-season-etl/internal/scheduler"
)

func main() {
	once := flag.Bool("once", false, "run a single current-season refresh and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	a, err := app.New(cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		sum, err := a.Runner.RefreshCurrent(ctx)
		if err != nil {
			logger.Error("refresh failed", "error", err)
			a.Close()
			os.Exit(1)
		}
		logger.Info("refresh complete", "as_of", sum.AsOf, "cities", sum.Cities, "failed", sum.Failed, "off_season", sum.OffSeason)
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, a.Runner, cfg.OutputDir, logger)

	sched := scheduler.New(cfg.RefreshSchedule, cfg.Timezone, cfg.RunOnStart, func(ctx context.Context) error {
		_, err := a.Runner.RefreshCurrent(ctx)
		return err
	}, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh schedule.
	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		stop()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
