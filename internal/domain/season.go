package domain

import (
	"fmt"
	"time"
)

// Season identifies a snow season by the calendar year in which it ends.
type Season int

// Bucketer assigns a calendar date to a season.
type Bucketer func(time.Time) Season

// SeasonOf returns the season a date belongs to. September through December
// roll forward into the next year's season, January through June stay in the
// current year, and July/August are pre-season for the coming winter.
func SeasonOf(d time.Time) Season {
	switch m := d.Month(); {
	case m >= time.September:
		return Season(d.Year() + 1)
	case m <= time.June:
		return Season(d.Year())
	default:
		return Season(d.Year() + 1)
	}
}

// SeasonWindow returns the first and last day of a season: September 1 of the
// previous year through June 30.
func SeasonWindow(s Season) (start, end time.Time) {
	start = time.Date(int(s)-1, time.September, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(int(s), time.June, 30, 0, 0, 0, 0, time.UTC)
	return start, end
}

// LastCompletedSeason returns the most recent season whose June 30 has passed.
func LastCompletedSeason(now time.Time) Season {
	_, end := SeasonWindow(Season(now.Year()))
	if CivilDate(now).After(end) {
		return Season(now.Year())
	}
	return Season(now.Year() - 1)
}

// SeasonSpan is an inclusive range of seasons.
type SeasonSpan struct {
	First Season
	Last  Season
}

// HistorySpan returns the span of n seasons ending at last.
func HistorySpan(last Season, n int) SeasonSpan {
	return SeasonSpan{First: last - Season(n) + 1, Last: last}
}

// Validate reports whether the span is non-empty.
func (s SeasonSpan) Validate() error {
	if s.Last < s.First {
		return fmt.Errorf("%w: season span %d..%d", ErrInvalidRange, s.First, s.Last)
	}
	return nil
}

// Len returns the number of seasons in the span.
func (s SeasonSpan) Len() int {
	if s.Last < s.First {
		return 0
	}
	return int(s.Last-s.First) + 1
}

// Seasons lists every season in the span in ascending order.
func (s SeasonSpan) Seasons() []Season {
	out := make([]Season, 0, s.Len())
	for y := s.First; y <= s.Last; y++ {
		out = append(out, y)
	}
	return out
}

// Contains reports whether season is inside the span.
func (s SeasonSpan) Contains(season Season) bool {
	return season >= s.First && season <= s.Last
}

// Window returns the date range covering every season in the span.
func (s SeasonSpan) Window() (start, end time.Time) {
	start, _ = SeasonWindow(s.First)
	_, end = SeasonWindow(s.Last)
	return start, end
}

// CivilDate truncates t to midnight UTC of its calendar date in t's location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

// FormatDate formats a civil date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
