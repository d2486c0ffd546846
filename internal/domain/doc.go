// Package domain models seasonal snowfall and cold-temperature leaderboards
// built from daily weather observations.
//
// # Data Sources
//
// Daily observations come from one of two upstream archives:
//
//	Open-Meteo archive (reanalysis): keyed by latitude/longitude, returns a
//	  "daily" object with a "time" array and one value array per variable.
//	  The arrays are parallel; a length mismatch is a malformed payload.
//	NOAA NCEI CDO v2 (GHCND): keyed by station id, returns "results" rows of
//	  {date, datatype, value}. Days without a report are simply absent.
//
// Both are requested in US customary units: snowfall in inches, temperature
// in degrees Fahrenheit.
//
// # Seasons
//
// A snow season is named after the calendar year in which it ends:
//
//	Season 2005 = 2004-09-01 … 2005-06-30
//
// Every calendar date belongs to exactly one season (see [SeasonOf]):
//
//	Sep–Dec → year+1
//	Jan–Jun → year
//	Jul–Aug → year+1 (pre-season for the coming winter, never dropped)
//
// # Aggregation
//
// Snowfall is summed per season; minimum temperature is the lowest value seen
// per season. Every season in the requested span is present in the output even
// without observations. Absent daily values ("null" upstream) contribute
// nothing. Totals are rounded to one decimal exactly once, when written.
//
// # Rankings
//
// Leaderboards rank cities by season total (descending) or season low
// (ascending). Ranks are dense and 1-based; ties keep registry order. The
// previous rank is read from the last persisted snapshot; a city missing there
// keeps its current rank. Cities whose fetch failed are appended after all
// ranked cities with an error marker.
//
// # Storm Events
//
// Any city whose last-24-hour snowfall meets [DefaultStormThreshold] is
// reported as a storm event. Events are recomputed every run.
package domain
