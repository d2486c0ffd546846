package pipeline

import (
	"time"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
)

// DefaultColdestLimit caps the coldest-cities leaderboard.
const DefaultColdestLimit = 20

// SnapshotParams carries the metadata shared by every snapshot of one run.
type SnapshotParams struct {
	GeneratedAt time.Time
	SeasonStart time.Time
	AsOf        time.Time
	Source      string
}

// BuildCurrentSnapshot ranks the results matching opts against the previous
// snapshot's ranks. storms is written as given; nil becomes an empty list.
func BuildCurrentSnapshot(results []domain.SnowResult, prev map[string]int, p SnapshotParams, opts domain.RankOptions, storms []domain.StormEvent) domain.CurrentSnapshot {
	if storms == nil {
		storms = []domain.StormEvent{}
	}
	return domain.CurrentSnapshot{
		LastUpdated: p.GeneratedAt.UTC(),
		Source:      p.Source,
		SeasonStart: domain.FormatDate(p.SeasonStart),
		SeasonEnd:   domain.FormatDate(p.AsOf),
		StormEvents: storms,
		Rankings:    domain.RankSnow(results, prev, p.AsOf, opts),
	}
}

// BuildColdSnapshot ranks every city by its season low, keeping at most limit entries.
func BuildColdSnapshot(results []domain.ColdResult, prev map[string]int, p SnapshotParams, limit int) domain.ColdSnapshot {
	return domain.ColdSnapshot{
		LastUpdated: p.GeneratedAt.UTC(),
		Source:      p.Source,
		SeasonStart: domain.FormatDate(p.SeasonStart),
		SeasonEnd:   domain.FormatDate(p.AsOf),
		Rankings:    domain.RankCold(results, prev, domain.RankOptions{Limit: limit}),
	}
}

// BuildHistory assembles the archive from unrounded per-city totals. Every
// city gets every season of span; rounding happens here and nowhere earlier.
func BuildHistory(totals map[string]domain.SeasonTotals, span domain.SeasonSpan, generatedAt time.Time, source string) domain.HistorySnapshot {
	cities := make(map[string]domain.SeasonTotals, len(totals))
	for id, t := range totals {
		full := make(domain.SeasonTotals, span.Len())
		for _, s := range span.Seasons() {
			full[s] = t[s]
		}
		cities[id] = full.Rounded()
	}
	return domain.HistorySnapshot{
		Meta: domain.HistoryMeta{
			GeneratedAt: generatedAt.UTC(),
			StartSeason: span.First,
			EndSeason:   span.Last,
			Source:      source,
		},
		Cities: cities,
	}
}
