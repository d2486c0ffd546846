package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
)

// snowView is one snowfall leaderboard file.
type snowView struct {
	file   string
	tag    string
	storms bool
}

var snowViews = []snowView{
	{file: domain.FileSeasonCurrent, tag: domain.TagNationalTop10, storms: true},
	{file: domain.FileSnowfallNY, tag: domain.TagNewYorkTop10},
}

// RefreshSummary describes one current-season refresh.
type RefreshSummary struct {
	AsOf        string
	Cities      int
	Failed      int
	Skipped     int
	StormEvents int
	OffSeason   bool
}

// RefreshCurrent fetches the in-progress season for every city and replaces
// the national, regional and coldest snapshots. Per-city failures become
// placeholder entries; only registry, cancellation and write errors fail the run.
func (r *Runner) RefreshCurrent(ctx context.Context) (sum RefreshSummary, err error) {
	done, err := r.begin(JobCurrent)
	if err != nil {
		return sum, err
	}
	defer func() { done(err, sum.OffSeason) }()

	asOf := r.yesterday()
	season := domain.SeasonOf(asOf)
	start, _ := domain.SeasonWindow(season)
	if !r.settings.SeasonStart.IsZero() {
		start = domain.CivilDate(r.settings.SeasonStart)
	}
	sum.AsOf = domain.FormatDate(asOf)
	if asOf.Before(start) {
		r.logger.Info("off-season, nothing to refresh", "as_of", sum.AsOf, "season_start", domain.FormatDate(start))
		sum.OffSeason = true
		return sum, nil
	}

	cities, err := r.cities()
	if err != nil {
		return sum, fmt.Errorf("load cities: %w", err)
	}
	r.logger.Info("refresh started", "as_of", sum.AsOf, "season", season, "cities", len(cities))

	span := domain.SeasonSpan{First: season, Last: season}
	snow := make([]domain.SnowResult, 0, len(cities))
	cold := make([]domain.ColdResult, 0, len(cities))

	fetched := false
	for _, city := range cities {
		city, ok := r.link(ctx, JobCurrent, city)
		if !ok {
			sum.Skipped++
			continue
		}
		if fetched && !r.pause(ctx, r.settings.CityDelay) {
			return sum, ctx.Err()
		}
		fetched = true
		sum.Cities++

		s := domain.SnowResult{City: city}
		c := domain.ColdResult{City: city}
		ran := false
		gerr := r.guarded(ctx, func(ctx context.Context) error {
			ran = true
			snowObs, snowErr := r.fetch(ctx, city, domain.MetricSnowfall, start, asOf)
			if snowErr != nil {
				r.logger.Error("snowfall fetch failed", "city", city.ID, "error", snowErr)
			} else {
				s.Total = domain.SumBySeason(snowObs, span, domain.SeasonOf)[season]
				s.Last24h = domain.ValueOn(snowObs, asOf)
			}
			tminObs, tminErr := r.fetch(ctx, city, domain.MetricMinTemperature, start, asOf)
			if tminErr != nil {
				r.logger.Error("temperature fetch failed", "city", city.ID, "error", tminErr)
			} else {
				c.Low = domain.MinBySeason(tminObs, span, domain.SeasonOf)[season]
			}
			s.Failed, c.Failed = snowErr != nil, tminErr != nil
			return errors.Join(snowErr, tminErr)
		})
		if !ran {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			r.logger.Error("city fetch rejected", "city", city.ID, "error", gerr)
			s.Failed, c.Failed = true, true
		}
		snow = append(snow, s)
		cold = append(cold, c)

		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		if s.Failed || c.Failed {
			sum.Failed++
			r.metrics.CityOutcomes.WithLabelValues(JobCurrent, "failed").Inc()
			continue
		}
		r.metrics.CityOutcomes.WithLabelValues(JobCurrent, "ok").Inc()
	}

	params := SnapshotParams{
		GeneratedAt: r.clock.Now(),
		SeasonStart: start,
		AsOf:        asOf,
		Source:      r.source.Label(),
	}
	storms := domain.ExtractStormEvents(snow, r.settings.StormThreshold)
	sum.StormEvents = len(storms)
	r.metrics.StormEvents.Set(float64(len(storms)))

	var errs []error
	for _, v := range snowViews {
		var events []domain.StormEvent
		if v.storms {
			events = storms
		}
		snap := BuildCurrentSnapshot(snow, r.previousRanks(v.file), params, domain.RankOptions{Tag: v.tag}, events)
		if werr := r.store.Write(v.file, snap); werr != nil {
			errs = append(errs, werr)
		}
	}
	coldSnap := BuildColdSnapshot(cold, r.previousRanks(domain.FileColdest), params, r.settings.ColdestLimit)
	if werr := r.store.Write(domain.FileColdest, coldSnap); werr != nil {
		errs = append(errs, werr)
	}
	if err := errors.Join(errs...); err != nil {
		return sum, fmt.Errorf("write snapshots: %w", err)
	}

	r.notify(ctx, asOf, storms)
	r.ready.Store(true)
	r.logger.Info("refresh complete",
		"as_of", sum.AsOf,
		"cities", sum.Cities,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
		"storm_events", sum.StormEvents,
	)
	return sum, nil
}

// previousRanks reads the snapshot about to be replaced. An unreadable file
// is logged and treated as having no previous ranks.
func (r *Runner) previousRanks(file string) map[string]int {
	prev, err := r.store.PreviousRanks(file)
	if err != nil {
		r.logger.Warn("previous snapshot unreadable, ranks reset", "file", file, "error", err)
		return map[string]int{}
	}
	return prev
}

// notify publishes storm events. Failures are logged and never fail the run
// since the snapshots are already written.
func (r *Runner) notify(ctx context.Context, observed time.Time, storms []domain.StormEvent) {
	if r.notifier == nil || len(storms) == 0 {
		return
	}
	if err := r.notifier.NotifyStorms(ctx, observed, storms); err != nil {
		r.logger.Error("storm notification failed", "count", len(storms), "error", err)
	}
}
