// Package app assembles the adapters and the pipeline runner from configuration.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/snow-season-etl/internal/adapter/breaker"
	kafkaadapter "github.com/couchcryptid/snow-season-etl/internal/adapter/kafka"
	"github.com/couchcryptid/snow-season-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/snow-season-etl/internal/adapter/noaa"
	"github.com/couchcryptid/snow-season-etl/internal/adapter/openmeteo"
	"github.com/couchcryptid/snow-season-etl/internal/adapter/snapshotfs"
	"github.com/couchcryptid/snow-season-etl/internal/config"
	"github.com/couchcryptid/snow-season-etl/internal/domain"
	"github.com/couchcryptid/snow-season-etl/internal/observability"
	"github.com/couchcryptid/snow-season-etl/internal/pipeline"
	"github.com/couchcryptid/snow-season-etl/internal/registry"
	"github.com/couchcryptid/snow-season-etl/internal/retry"
	"golang.org/x/time/rate"
)

// openMeteoRateLimit keeps archive requests well under the free-tier limits.
const openMeteoRateLimit = 5

// App holds the wired runner and everything that must be closed on shutdown.
type App struct {
	Runner *pipeline.Runner
	Store  *snapshotfs.Store
	Source pipeline.Source

	notifier *kafkaadapter.Notifier
	logger   *slog.Logger
}

// New builds the source, breaker, store, optional geocoder and notifier, and the runner.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	src, err := NewSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	guard := breaker.New(src.Name(), breaker.Settings{
		MaxFailures: cfg.BreakerMaxFailures,
		Cooldown:    cfg.BreakerCooldown,
	}, logger, metrics)

	store := snapshotfs.New(cfg.OutputDir, logger, metrics)
	cities := func() ([]domain.City, error) { return registry.LoadFile(cfg.CitiesPath) }

	a := &App{Store: store, Source: src, logger: logger}
	opts := []pipeline.Option{pipeline.WithCityGuard(guard)}

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		opts = append(opts, pipeline.WithGeocoder(mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)))
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("mapbox geocoding disabled")
	}

	if cfg.KafkaEnabled {
		a.notifier = kafkaadapter.NewNotifier(cfg.KafkaBrokers, cfg.KafkaStormTopic, logger, metrics)
		opts = append(opts, pipeline.WithNotifier(a.notifier))
		logger.Info("storm notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaStormTopic)
	}

	a.Runner = pipeline.NewRunner(src, store, cities, Settings(cfg), logger, metrics, opts...)
	return a, nil
}

// NewSource returns the weather source selected by DATA_SOURCE.
func NewSource(cfg *config.Config, logger *slog.Logger) (pipeline.Source, error) {
	switch cfg.DataSource {
	case config.SourceOpenMeteo:
		limiter := rate.NewLimiter(rate.Limit(openMeteoRateLimit), 1)
		return openmeteo.NewClient(cfg.OpenMeteoBaseURL, cfg.Timezone.String(), cfg.HTTPTimeout, limiter, logger), nil
	case config.SourceNOAA:
		if cfg.NOAAToken == "" {
			return nil, errors.New("NOAA_TOKEN is required when DATA_SOURCE=noaa")
		}
		limiter := rate.NewLimiter(rate.Limit(cfg.NOAARateLimit), 1)
		return noaa.NewClient(cfg.NOAABaseURL, cfg.NOAAToken, cfg.HTTPTimeout, limiter, logger), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}
}

// Settings maps configuration onto runner settings.
func Settings(cfg *config.Config) pipeline.Settings {
	return pipeline.Settings{
		Timezone:         cfg.Timezone,
		SeasonStart:      cfg.SeasonStart,
		CityDelay:        cfg.CityDelay,
		HistoryCityDelay: cfg.HistoryCityDelay,
		Retry: retry.Policy{
			MaxAttempts:     cfg.RetryMaxAttempts,
			InitialInterval: cfg.RetryInitialInterval,
			MaxInterval:     cfg.RetryMaxInterval,
			Multiplier:      2,
			Jitter:          0.2,
		},
		StormThreshold: cfg.StormThreshold,
	}
}

// Close releases the notifier, if any.
func (a *App) Close() {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Close(); err != nil {
		a.logger.Error("kafka notifier close error", "error", err)
	}
}
