package domain

import (
	"math"
	"time"
)

// SeasonTotals maps a season to its accumulated snowfall in inches.
type SeasonTotals map[Season]float64

// SumBySeason folds observations into per-season sums. Every season in span
// starts at zero so empty seasons are reported rather than omitted.
// Observations that bucket outside the span are ignored. Values are not
// rounded or clamped here.
func SumBySeason(obs []DailyObservation, span SeasonSpan, bucket Bucketer) SeasonTotals {
	if bucket == nil {
		bucket = SeasonOf
	}
	totals := make(SeasonTotals, span.Len())
	for _, s := range span.Seasons() {
		totals[s] = 0
	}
	for _, o := range obs {
		if o.Value == nil {
			continue
		}
		s := bucket(o.Date)
		if !span.Contains(s) {
			continue
		}
		totals[s] += *o.Value
	}
	return totals
}

// Rounded returns a copy with every total rounded to one decimal place.
func (t SeasonTotals) Rounded() SeasonTotals {
	out := make(SeasonTotals, len(t))
	for s, v := range t {
		out[s] = Round1(v)
	}
	return out
}

// SeasonLow is the lowest value observed in a season.
type SeasonLow struct {
	Value float64
	Date  time.Time
}

// Observed reports whether any value was seen.
func (l SeasonLow) Observed() bool {
	return !math.IsInf(l.Value, 1)
}

// MinBySeason folds observations into per-season minimums. Each season is
// seeded at +Inf and only replaced by a strictly lower value, so the earliest
// date of a repeated low is kept.
func MinBySeason(obs []DailyObservation, span SeasonSpan, bucket Bucketer) map[Season]SeasonLow {
	if bucket == nil {
		bucket = SeasonOf
	}
	lows := make(map[Season]SeasonLow, span.Len())
	for _, s := range span.Seasons() {
		lows[s] = SeasonLow{Value: math.Inf(1)}
	}
	for _, o := range obs {
		if o.Value == nil {
			continue
		}
		s := bucket(o.Date)
		cur, ok := lows[s]
		if !ok {
			continue
		}
		if *o.Value < cur.Value {
			lows[s] = SeasonLow{Value: *o.Value, Date: CivilDate(o.Date)}
		}
	}
	return lows
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
