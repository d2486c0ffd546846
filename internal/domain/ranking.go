package domain

import (
	"cmp"
	"slices"
	"time"
)

// Windchill estimates: the season windchill is the season low minus 5°F and
// the all-time windchill is the all-time low minus 10°F. Cities without an
// all-time low default to -40°F.
const (
	windchillOffset        = 5.0
	allTimeWindchillOffset = 10.0
	defaultAllTimeLow      = -40.0
	recordDateLayout       = "Jan 2, 2006"
)

// SnowResult is one city's aggregated current-season snowfall. Total and
// Last24h are unrounded.
type SnowResult struct {
	City    City
	Total   float64
	Last24h float64
	Failed  bool
}

// ColdResult is one city's current-season low temperature.
type ColdResult struct {
	City   City
	Low    SeasonLow
	Failed bool
}

// RankOptions narrows a leaderboard. Tag filters cities before ranking; Limit
// caps the number of entries after ordering (0 means no limit).
type RankOptions struct {
	Tag   string
	Limit int
}

func (o RankOptions) keep(c City) bool {
	return o.Tag == "" || c.HasTag(o.Tag)
}

// RankSnow orders snowfall results descending by rounded season total and
// assigns dense ranks. Equal totals keep registry order. Failed cities follow
// every ranked city. prev maps city id to the rank in the prior snapshot.
func RankSnow(results []SnowResult, prev map[string]int, asOf time.Time, opts RankOptions) []RankedEntry {
	ordered := order(results, opts,
		func(r SnowResult) City { return r.City },
		func(r SnowResult) bool { return r.Failed },
		func(a, b SnowResult) int { return cmp.Compare(Round1(b.Total), Round1(a.Total)) },
	)

	out := make([]RankedEntry, 0, len(ordered))
	for i, r := range ordered {
		rank := i + 1
		e := RankedEntry{
			ID:           r.City.ID,
			Rank:         rank,
			PreviousRank: previousRank(prev, r.City.ID, rank),
			City:         r.City.Name,
			State:        r.City.State,
			Tags:         tagsOrEmpty(r.City.Tags),
			AvgAnnual:    r.City.AnnualAverage,
			Error:        r.Failed,
		}
		if !r.Failed {
			e.TotalSnow = Round1(r.Total)
			e.Last24h = Round1(r.Last24h)
			e.SeasonProgress = SeasonProgress(e.TotalSnow, e.AvgAnnual)
			e.TrendPct = Trend(e.TotalSnow, e.AvgAnnual, asOf)
		}
		out = append(out, e)
	}
	return out
}

// RankCold orders cities ascending by season low. Cities that fetched cleanly
// but reported no temperature at all are left out; failed cities follow every
// ranked city.
func RankCold(results []ColdResult, prev map[string]int, opts RankOptions) []ColdEntry {
	usable := make([]ColdResult, 0, len(results))
	for _, r := range results {
		if r.Failed || r.Low.Observed() {
			usable = append(usable, r)
		}
	}

	ordered := order(usable, opts,
		func(r ColdResult) City { return r.City },
		func(r ColdResult) bool { return r.Failed },
		func(a, b ColdResult) int { return cmp.Compare(a.Low.Value, b.Low.Value) },
	)

	out := make([]ColdEntry, 0, len(ordered))
	for i, r := range ordered {
		rank := i + 1
		allTimeLow := defaultAllTimeLow
		if r.City.AllTimeLow != nil {
			allTimeLow = *r.City.AllTimeLow
		}
		e := ColdEntry{
			ID:               r.City.ID,
			Rank:             rank,
			PreviousRank:     previousRank(prev, r.City.ID, rank),
			City:             r.City.Name,
			State:            r.City.State,
			Tags:             tagsOrEmpty(r.City.Tags),
			RecordDate:       "-",
			AllTimeLow:       allTimeLow,
			AllTimeWindchill: allTimeLow - allTimeWindchillOffset,
			Error:            r.Failed,
		}
		if !r.Failed {
			e.LowestTemp = Round1(r.Low.Value)
			e.LowestWindchill = Round1(r.Low.Value - windchillOffset)
			e.RecordDate = r.Low.Date.Format(recordDateLayout)
		}
		out = append(out, e)
	}
	return out
}

// RankDelta is the number of places climbed since the previous snapshot.
func RankDelta(e RankedEntry) int {
	return e.PreviousRank - e.Rank
}

// order filters by tag, stable-sorts the successful results and appends the
// failed ones in input order, then applies the limit.
func order[T any](items []T, opts RankOptions, city func(T) City, failed func(T) bool, compare func(a, b T) int) []T {
	var valid, broken []T
	for _, it := range items {
		if !opts.keep(city(it)) {
			continue
		}
		if failed(it) {
			broken = append(broken, it)
			continue
		}
		valid = append(valid, it)
	}
	slices.SortStableFunc(valid, compare)

	out := append(valid, broken...)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func previousRank(prev map[string]int, id string, current int) int {
	if r, ok := prev[id]; ok && r > 0 {
		return r
	}
	return current
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
