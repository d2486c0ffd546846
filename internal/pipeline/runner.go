// Package pipeline turns daily observations from a weather source into the
// current-season leaderboards and the historical archive.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
	"github.com/couchcryptid/snow-season-etl/internal/observability"
	"github.com/couchcryptid/snow-season-etl/internal/retry"
	"github.com/jonboulle/clockwork"
)

// ErrRunInProgress is returned when a job is started while another is running.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Job names used in logs and metrics.
const (
	JobCurrent = "current"
	JobHistory = "history"
)

// Settings are the immutable run parameters.
type Settings struct {
	// Timezone defines the civil day used for "yesterday".
	Timezone *time.Location
	// SeasonStart overrides the derived start of the current season.
	SeasonStart time.Time

	CityDelay        time.Duration
	HistoryCityDelay time.Duration
	Retry            retry.Policy
	StormThreshold   float64
	ColdestLimit     int
}

// Runner executes refresh and history jobs one city at a time.
type Runner struct {
	source   Source
	store    SnapshotStore
	cities   CityLoader
	geocoder domain.Geocoder
	notifier StormNotifier
	guard    CityGuard
	clock    clockwork.Clock
	settings Settings
	logger   *slog.Logger
	metrics  *observability.Metrics

	running atomic.Bool
	ready   atomic.Bool
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClock replaces the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithGeocoder fills in missing coordinates for coordinate-based sources.
func WithGeocoder(g domain.Geocoder) Option {
	return func(r *Runner) { r.geocoder = g }
}

// WithNotifier publishes storm events after each refresh.
func WithNotifier(n StormNotifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// WithCityGuard runs each city's fetches through g.
func WithCityGuard(g CityGuard) Option {
	return func(r *Runner) { r.guard = g }
}

// NewRunner wires a Runner.
func NewRunner(src Source, store SnapshotStore, cities CityLoader, settings Settings, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Runner {
	if settings.Timezone == nil {
		settings.Timezone = time.UTC
	}
	if settings.StormThreshold <= 0 {
		settings.StormThreshold = domain.DefaultStormThreshold
	}
	if settings.ColdestLimit <= 0 {
		settings.ColdestLimit = DefaultColdestLimit
	}
	r := &Runner{
		source:   src,
		store:    store,
		cities:   cities,
		clock:    clockwork.NewRealClock(),
		settings: settings,
		logger:   logger.With("component", "pipeline", "source", src.Name()),
		metrics:  metrics,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// CheckReadiness returns nil once a refresh has completed successfully.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no successful refresh yet")
	}
	return nil
}

// begin claims the single run slot.
func (r *Runner) begin(job string) (func(err error, skipped bool), error) {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Warn("run refused, another run is in progress", "job", job)
		return nil, ErrRunInProgress
	}
	r.metrics.RefreshRunning.Set(1)
	started := r.clock.Now()

	return func(err error, skipped bool) {
		r.metrics.RunDuration.WithLabelValues(job).Observe(r.clock.Since(started).Seconds())
		switch {
		case err != nil:
			r.metrics.RunsTotal.WithLabelValues(job, "error").Inc()
		case skipped:
			r.metrics.RunsTotal.WithLabelValues(job, "skipped").Inc()
		default:
			r.metrics.RunsTotal.WithLabelValues(job, "success").Inc()
			r.metrics.LastSuccess.WithLabelValues(job).Set(float64(r.clock.Now().Unix()))
		}
		r.metrics.RefreshRunning.Set(0)
		r.running.Store(false)
	}, nil
}

// yesterday returns the civil date before today in the configured timezone.
func (r *Runner) yesterday() time.Time {
	return domain.CivilDate(r.clock.Now().In(r.settings.Timezone)).AddDate(0, 0, -1)
}

// link resolves the identifier the source needs, logging and counting skips.
func (r *Runner) link(ctx context.Context, job string, city domain.City) (domain.City, bool) {
	linked, err := domain.ResolveLinkage(ctx, city, r.source.Linkage(), r.geocoder, r.logger)
	if err != nil {
		r.logger.Warn("skipping city", "job", job, "city", city.ID, "error", err)
		r.metrics.CityOutcomes.WithLabelValues(job, "skipped").Inc()
		return city, false
	}
	return linked, true
}

// fetch calls the source under the retry policy and records every attempt.
func (r *Runner) fetch(ctx context.Context, city domain.City, metric domain.Metric, start, end time.Time) ([]domain.DailyObservation, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}
	name := r.source.Name()
	attempt := func(ctx context.Context) ([]domain.DailyObservation, error) {
		began := r.clock.Now()
		obs, err := r.source.FetchDaily(ctx, city, metric, start, end)
		r.metrics.FetchDuration.WithLabelValues(name).Observe(r.clock.Since(began).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		r.metrics.FetchRequests.WithLabelValues(name, string(metric), outcome).Inc()
		return obs, err
	}
	onRetry := func(n int, err error, wait time.Duration) {
		r.metrics.FetchRetries.WithLabelValues(name, string(metric)).Inc()
		r.logger.Warn("fetch failed, retrying",
			"city", city.ID,
			"metric", metric,
			"attempt", n,
			"wait", wait,
			"error", err,
		)
	}
	return retry.Do(ctx, r.settings.Retry, attempt, retry.WithClock(r.clock), retry.WithNotify(onRetry))
}

// guarded runs fn through the city guard when one is configured.
func (r *Runner) guarded(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.guard == nil {
		return fn(ctx)
	}
	return r.guard.Do(ctx, fn)
}

// pause waits d between cities. It returns false if ctx ends first.
func (r *Runner) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-r.clock.After(d):
		return true
	}
}
