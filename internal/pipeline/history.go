package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
)

// HistorySummary describes one archive build.
type HistorySummary struct {
	Span    domain.SeasonSpan
	Cities  int
	Failed  int
	Skipped int
}

// BuildHistory fetches the whole span for every city, one request per city,
// and replaces the archive. Cities without linkage or whose fetch keeps
// failing are left out of the archive.
func (r *Runner) BuildHistory(ctx context.Context, span domain.SeasonSpan) (sum HistorySummary, err error) {
	sum.Span = span
	if err := span.Validate(); err != nil {
		return sum, err
	}
	done, err := r.begin(JobHistory)
	if err != nil {
		return sum, err
	}
	defer func() { done(err, false) }()

	start, end := span.Window()
	if y := r.yesterday(); end.After(y) {
		end = y
	}
	if end.Before(start) {
		return sum, fmt.Errorf("%w: seasons %d-%d have not started", domain.ErrInvalidRange, span.First, span.Last)
	}

	cities, err := r.cities()
	if err != nil {
		return sum, fmt.Errorf("load cities: %w", err)
	}
	r.logger.Info("history build started",
		"start_season", span.First,
		"end_season", span.Last,
		"cities", len(cities),
	)

	totals := make(map[string]domain.SeasonTotals, len(cities))
	fetched := false
	for _, city := range cities {
		city, ok := r.link(ctx, JobHistory, city)
		if !ok {
			sum.Skipped++
			continue
		}
		if fetched && !r.pause(ctx, r.settings.HistoryCityDelay) {
			return sum, ctx.Err()
		}
		fetched = true

		var obs []domain.DailyObservation
		ferr := r.guarded(ctx, func(ctx context.Context) error {
			var err error
			obs, err = r.fetch(ctx, city, domain.MetricSnowfall, start, end)
			return err
		})
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		if ferr != nil {
			r.logger.Error("history fetch failed, city left out", "city", city.ID, "error", ferr)
			r.metrics.CityOutcomes.WithLabelValues(JobHistory, "failed").Inc()
			sum.Failed++
			continue
		}
		totals[city.ID] = domain.SumBySeason(obs, span, domain.SeasonOf)
		sum.Cities++
		r.metrics.CityOutcomes.WithLabelValues(JobHistory, "ok").Inc()
		r.logger.Debug("history fetched", "city", city.ID, "observations", len(obs))
	}

	snap := BuildHistory(totals, span, r.clock.Now(), r.source.Label())
	if err := r.store.Write(domain.FileHistory, snap); err != nil {
		return sum, fmt.Errorf("write history: %w", err)
	}
	r.logger.Info("history build complete",
		"cities", sum.Cities,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
	)
	return sum, nil
}
