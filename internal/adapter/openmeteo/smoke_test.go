//go:build openmeteo

package openmeteo

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Open-Meteo archive API.
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

func TestSmoke_FetchDailySnowfall(t *testing.T) {
	c := NewClient(DefaultBaseURL, "America/New_York", 30*time.Second, nil, discardLogger())

	obs, err := c.FetchDaily(context.Background(), buffalo, domain.MetricSnowfall, day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	assert.Len(t, obs, 31)

	total := domain.SumBySeason(obs, domain.SeasonSpan{First: 2024, Last: 2024}, domain.SeasonOf)[2024]
	assert.Greater(t, total, 0.0, "Buffalo gets snow in January")
}

func TestSmoke_FetchDailyMinTemperature(t *testing.T) {
	c := NewClient(DefaultBaseURL, "America/New_York", 30*time.Second, nil, discardLogger())

	obs, err := c.FetchDaily(context.Background(), buffalo, domain.MetricMinTemperature, day(2024, 1, 15), day(2024, 1, 21))
	require.NoError(t, err)
	require.Len(t, obs, 7)

	lows := domain.MinBySeason(obs, domain.SeasonSpan{First: 2024, Last: 2024}, domain.SeasonOf)
	assert.True(t, lows[2024].Observed())
	assert.Less(t, lows[2024].Value, 32.0)
}
