package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
)

// DefaultStormThreshold is the 24-hour snowfall, in inches, that makes a storm event.
const DefaultStormThreshold = 4.0

// ExtractStormEvents returns every successfully fetched city whose rounded
// last-24-hour snowfall is at least threshold, heaviest first. The result is
// never nil so it serializes as an empty list.
func ExtractStormEvents(results []SnowResult, threshold float64) []StormEvent {
	hits := make([]SnowResult, 0)
	for _, r := range results {
		if r.Failed || Round1(r.Last24h) < threshold {
			continue
		}
		hits = append(hits, r)
	}
	slices.SortStableFunc(hits, func(a, b SnowResult) int {
		return cmp.Compare(Round1(b.Last24h), Round1(a.Last24h))
	})

	events := make([]StormEvent, 0, len(hits))
	for _, r := range hits {
		snow := Round1(r.Last24h)
		events = append(events, StormEvent{
			CityID:  r.City.ID,
			City:    r.City.Name,
			State:   r.City.State,
			Snow24h: snow,
			Message: fmt.Sprintf("%s just got %s\" of fresh powder!", r.City.Name, strconv.FormatFloat(snow, 'f', -1, 64)),
		})
	}
	return events
}
