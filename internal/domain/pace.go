package domain

import (
	"math"
	"time"
)

// paceSeasonDays is the length of the nominal accumulation season, Oct 1 – Apr 30.
const paceSeasonDays = 212

const maxSeasonProgress = 150

// SeasonProgress is the season total as a percentage of the annual average,
// capped at 150. Nil when the city has no average.
func SeasonProgress(total, avgAnnual float64) *int {
	if avgAnnual <= 0 {
		return nil
	}
	pct := int(math.Round(total / avgAnnual * 100))
	if pct > maxSeasonProgress {
		pct = maxSeasonProgress
	}
	return &pct
}

// Trend compares the season total with the snowfall expected by asOf if the
// annual average fell evenly from October 1 through April 30. The result is a
// percentage above (positive) or below (negative) that pace.
func Trend(total, avgAnnual float64, asOf time.Time) *int {
	if avgAnnual <= 0 {
		return nil
	}
	day := CivilDate(asOf)
	start := time.Date(day.Year(), time.October, 1, 0, 0, 0, 0, time.UTC)
	if day.Before(start) {
		start = start.AddDate(-1, 0, 0)
	}
	elapsed := int(day.Sub(start).Hours() / 24)
	if elapsed < 1 {
		elapsed = 1
	}
	fraction := math.Min(float64(elapsed)/paceSeasonDays, 1)
	expected := avgAnnual * fraction
	if expected <= 0 {
		return nil
	}
	pct := int(math.Round((total - expected) / expected * 100))
	return &pct
}
