// Command history builds the historical season archive (history.json) for the
// configured city registry and exits.
//
// Usage:
//
//	go run ./cmd/history -end-season 2025 -seasons 20
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/snow-season-etl/internal/app"
	"github.com/couchcryptid/snow-season-etl/internal/config"
	"github.com/couchcryptid/snow-season-etl/internal/domain"
	"github.com/couchcryptid/snow-season-etl/internal/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	defaultEnd := cfg.HistoryEndSeason
	if defaultEnd == 0 {
		defaultEnd = int(domain.LastCompletedSeason(time.Now().In(cfg.Timezone)))
	}
	endSeason := flag.Int("end-season", defaultEnd, "last season to include, named by the year it ends")
	seasons := flag.Int("seasons", cfg.HistorySeasons, "number of seasons to include")
	flag.Parse()

	if *seasons < 1 {
		fmt.Fprintln(os.Stderr, "-seasons must be at least 1")
		return 2
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	a, err := app.New(cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	span := domain.HistorySpan(domain.Season(*endSeason), *seasons)
	logger.Info("building history", "first_season", span.First, "last_season", span.Last, "source", a.Source.Label())

	sum, err := a.Runner.BuildHistory(ctx, span)
	if err != nil {
		logger.Error("history build failed", "error", err)
		return 1
	}
	logger.Info("history written",
		"path", a.Store.Dir()+"/"+domain.FileHistory,
		"cities", sum.Cities, "failed", sum.Failed, "skipped", sum.Skipped)
	return 0
}
