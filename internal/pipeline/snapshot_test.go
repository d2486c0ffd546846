package pipeline_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
	"github.com/couchcryptid/snow-season-etl/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var params = pipeline.SnapshotParams{
	GeneratedAt: now,
	SeasonStart: date(2025, time.September, 1),
	AsOf:        yesterday,
	Source:      "Fake Archive",
}

func TestBuildCurrentSnapshot_SeasonTotalFromSparseSeries(t *testing.T) {
	a := city("a", domain.TagNationalTop10)
	obs := []domain.DailyObservation{
		snowfall(date(2025, time.December, 1), 1.0),
		domain.Missing(date(2025, time.December, 2), domain.MetricSnowfall),
		snowfall(date(2025, time.December, 3), 2.5),
	}
	span := domain.SeasonSpan{First: 2026, Last: 2026}
	total := domain.SumBySeason(obs, span, domain.SeasonOf)[2026]

	snap := pipeline.BuildCurrentSnapshot([]domain.SnowResult{{City: a, Total: total}}, nil, params, domain.RankOptions{}, nil)
	require.Len(t, snap.Rankings, 1)
	assert.Equal(t, 3.5, snap.Rankings[0].TotalSnow)
	assert.False(t, snap.Rankings[0].Error, "a missing day is not a failure")
}

func TestBuildCurrentSnapshot_TiesKeepInputOrder(t *testing.T) {
	results := []domain.SnowResult{
		{City: city("first"), Total: 10.0},
		{City: city("second"), Total: 10.0},
		{City: city("third"), Total: 12.0},
	}
	for range 5 {
		snap := pipeline.BuildCurrentSnapshot(results, nil, params, domain.RankOptions{}, nil)
		got := []string{snap.Rankings[0].ID, snap.Rankings[1].ID, snap.Rankings[2].ID}
		assert.Equal(t, []string{"third", "first", "second"}, got)
	}
}

func TestBuildCurrentSnapshot_RanksArePermutation(t *testing.T) {
	var results []domain.SnowResult
	for i, v := range []float64{3, 9, 1, 9, 0, 4.4} {
		results = append(results, domain.SnowResult{City: city(string(rune('a' + i))), Total: v})
	}
	snap := pipeline.BuildCurrentSnapshot(results, nil, params, domain.RankOptions{}, nil)

	seen := map[int]bool{}
	for _, e := range snap.Rankings {
		seen[e.Rank] = true
	}
	for rank := 1; rank <= len(results); rank++ {
		assert.True(t, seen[rank], "rank %d missing", rank)
	}
	assert.Len(t, seen, len(results))
}

func TestBuildCurrentSnapshot_Schema(t *testing.T) {
	storms := domain.ExtractStormEvents([]domain.SnowResult{{City: city("erie"), Last24h: 6.04}}, domain.DefaultStormThreshold)
	snap := pipeline.BuildCurrentSnapshot([]domain.SnowResult{{City: city("erie"), Total: 42.06, Last24h: 6.04}}, map[string]int{"erie": 2}, params, domain.RankOptions{}, storms)

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "2025-09-01", got["season_start"])
	assert.Equal(t, "2026-01-14", got["season_end"])
	assert.Equal(t, "2026-01-15T12:00:00Z", got["last_updated"])

	events := got["storm_events"].([]any)
	require.Len(t, events, 1)
	want := map[string]any{"city": "erie", "state": "NY", "snow_24h": 6.0, "message": `erie just got 6" of fresh powder!`}
	if diff := cmp.Diff(want, events[0]); diff != "" {
		t.Errorf("storm event (-want +got):\n%s", diff)
	}

	row := got["rankings"].([]any)[0].(map[string]any)
	assert.Equal(t, 42.1, row["total_snow"])
	assert.Equal(t, 6.0, row["last_24h"])
	assert.Equal(t, 2.0, row["previous_rank"])
	assert.Equal(t, 100.0, row["avg_annual"])
	assert.NotContains(t, row, "error")
}

func TestBuildCurrentSnapshot_EmptyStormList(t *testing.T) {
	snap := pipeline.BuildCurrentSnapshot(nil, nil, params, domain.RankOptions{}, nil)
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"storm_events":[]`)
	assert.Contains(t, string(data), `"rankings":[]`)
}

func TestBuildColdSnapshot_Limit(t *testing.T) {
	var results []domain.ColdResult
	for i := range 25 {
		results = append(results, domain.ColdResult{
			City: city(string(rune('a' + i))),
			Low:  domain.SeasonLow{Value: float64(-i), Date: date(2026, time.January, 2)},
		})
	}
	snap := pipeline.BuildColdSnapshot(results, nil, params, pipeline.DefaultColdestLimit)
	require.Len(t, snap.Rankings, 20)
	assert.Equal(t, -24.0, snap.Rankings[0].LowestTemp)
	assert.Equal(t, 20, snap.Rankings[19].Rank)
}

func TestBuildHistory_FillsEverySeasonAndRoundsOnce(t *testing.T) {
	span := domain.HistorySpan(2024, 3)
	totals := map[string]domain.SeasonTotals{
		"erie": {2023: 0.04 + 0.04 + 0.04},
	}
	h := pipeline.BuildHistory(totals, span, now, "Fake Archive")

	assert.Equal(t, domain.SeasonTotals{2022: 0, 2023: 0.1, 2024: 0}, h.Cities["erie"])
	assert.Equal(t, now, h.Meta.GeneratedAt)
}
