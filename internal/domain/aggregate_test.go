package domain

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snow(d time.Time, v float64) DailyObservation { return Observed(d, MetricSnowfall, v) }

func TestSumBySeason_NullsContributeNothing(t *testing.T) {
	obs := []DailyObservation{
		snow(date(2025, time.January, 10), 1.0),
		Missing(date(2025, time.January, 11), MetricSnowfall),
		snow(date(2025, time.January, 12), 2.5),
	}

	totals := SumBySeason(obs, SeasonSpan{First: 2025, Last: 2025}, SeasonOf).Rounded()
	assert.Equal(t, SeasonTotals{2025: 3.5}, totals)
}

func TestSumBySeason_EverySeasonPresent(t *testing.T) {
	span := HistorySpan(2025, 20)
	obs := []DailyObservation{
		snow(date(2010, time.February, 1), 12.0),
	}

	totals := SumBySeason(obs, span, SeasonOf)
	require.Len(t, totals, 20)
	for _, s := range span.Seasons() {
		_, ok := totals[s]
		assert.True(t, ok, "season %d missing", s)
	}
	assert.Equal(t, 12.0, totals[2010])
	assert.Equal(t, 0.0, totals[2011])
}

func TestSumBySeason_OffSeasonGoesToNextSeason(t *testing.T) {
	obs := []DailyObservation{
		snow(date(2009, time.August, 20), 0.4),
		snow(date(2009, time.October, 30), 1.1),
		snow(date(2009, time.June, 3), 0.2),
	}

	totals := SumBySeason(obs, SeasonSpan{First: 2009, Last: 2010}, SeasonOf).Rounded()
	assert.Equal(t, SeasonTotals{2009: 0.2, 2010: 1.5}, totals)
}

func TestSumBySeason_OutsideSpanIgnored(t *testing.T) {
	obs := []DailyObservation{
		snow(date(1999, time.January, 1), 40),
		snow(date(2015, time.January, 1), 2),
	}
	totals := SumBySeason(obs, SeasonSpan{First: 2015, Last: 2015}, nil)
	assert.Equal(t, SeasonTotals{2015: 2}, totals)
}

func TestSumBySeason_NegativeNotClamped(t *testing.T) {
	obs := []DailyObservation{
		snow(date(2020, time.January, 1), 3),
		snow(date(2020, time.January, 2), -1),
	}
	totals := SumBySeason(obs, SeasonSpan{First: 2020, Last: 2020}, SeasonOf)
	assert.Equal(t, 2.0, totals[2020])
}

func TestSumBySeason_RoundsOnceAtOutput(t *testing.T) {
	// Ten days of 0.04" each: rounding per step would give 0.0, rounding once gives 0.4.
	var obs []DailyObservation
	for d := 1; d <= 10; d++ {
		obs = append(obs, snow(date(2021, time.January, d), 0.04))
	}
	totals := SumBySeason(obs, SeasonSpan{First: 2021, Last: 2021}, SeasonOf).Rounded()
	assert.Equal(t, 0.4, totals[2021])
}

func TestSumBySeason_Deterministic(t *testing.T) {
	span := HistorySpan(2025, 20)
	var obs []DailyObservation
	for i := 0; i < 7000; i++ {
		d := date(2005, time.September, 1).AddDate(0, 0, i)
		obs = append(obs, snow(d, float64(i%7)*0.13))
	}

	first := SumBySeason(obs, span, SeasonOf).Rounded()
	second := SumBySeason(obs, span, SeasonOf).Rounded()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("totals differ between runs (-first +second):\n%s", diff)
	}
}

func TestSumBySeason_CustomBucketer(t *testing.T) {
	calendarYear := func(d time.Time) Season { return Season(d.Year()) }
	obs := []DailyObservation{snow(date(2020, time.December, 1), 5)}

	totals := SumBySeason(obs, SeasonSpan{First: 2020, Last: 2021}, calendarYear)
	assert.Equal(t, 5.0, totals[2020])
	assert.Equal(t, 0.0, totals[2021])
}

func TestMinBySeason(t *testing.T) {
	temp := func(d time.Time, v float64) DailyObservation { return Observed(d, MetricMinTemperature, v) }
	obs := []DailyObservation{
		temp(date(2025, time.December, 1), 12),
		temp(date(2026, time.January, 5), -8),
		Missing(date(2026, time.January, 6), MetricMinTemperature),
		temp(date(2026, time.January, 20), -8),
		temp(date(2026, time.February, 2), 3),
	}

	lows := MinBySeason(obs, SeasonSpan{First: 2026, Last: 2027}, SeasonOf)
	require.Len(t, lows, 2)

	low := lows[2026]
	assert.True(t, low.Observed())
	assert.Equal(t, -8.0, low.Value)
	assert.Equal(t, date(2026, time.January, 5), low.Date, "strictly lower replaces, ties keep the first")

	empty := lows[2027]
	assert.False(t, empty.Observed())
	assert.True(t, math.IsInf(empty.Value, 1))
}

func TestValueOn(t *testing.T) {
	obs := []DailyObservation{
		snow(date(2026, time.January, 1), 1.2),
		Missing(date(2026, time.January, 2), MetricSnowfall),
		snow(date(2026, time.January, 3), 6.4),
	}
	assert.Equal(t, 6.4, ValueOn(obs, date(2026, time.January, 3)))
	assert.Equal(t, 0.0, ValueOn(obs, date(2026, time.January, 2)))
	assert.Equal(t, 0.0, ValueOn(obs, date(2026, time.January, 4)))
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 3.5, Round1(3.5))
	assert.Equal(t, 10.0, Round1(10.04))
	assert.Equal(t, 0.3, Round1(0.1+0.2))
	assert.Equal(t, -2.5, Round1(-2.45000001))
}
