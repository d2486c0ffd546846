package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonProgress(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		avg   float64
		want  int
	}{
		{"half way", 45, 90, 50},
		{"exactly average", 120, 120, 100},
		{"capped", 200, 100, 150},
		{"nothing yet", 0, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SeasonProgress(tt.total, tt.avg)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestSeasonProgress_NoAverage(t *testing.T) {
	assert.Nil(t, SeasonProgress(10, 0))
	assert.Nil(t, Trend(10, 0, date(2026, time.January, 1)))
}

func TestTrend(t *testing.T) {
	// 92 days into the Oct 1 – Apr 30 pace window: expected 100*92/212 ≈ 43.4".
	got := Trend(50, 100, date(2026, time.January, 1))
	require.NotNil(t, got)
	assert.Equal(t, 15, *got)

	behind := Trend(20, 100, date(2026, time.January, 1))
	require.NotNil(t, behind)
	assert.Equal(t, -54, *behind)
}

func TestTrend_AfterPaceWindow(t *testing.T) {
	// Past April 30 the whole average is expected.
	got := Trend(90, 100, date(2026, time.June, 1))
	require.NotNil(t, got)
	assert.Equal(t, -10, *got)
}

func TestTrend_SeasonOpening(t *testing.T) {
	// Before October 1 the previous pace window is still running.
	got := Trend(100, 100, date(2025, time.September, 15))
	require.NotNil(t, got)
	assert.Equal(t, 0, *got)

	first := Trend(0, 100, date(2025, time.October, 1))
	require.NotNil(t, first)
	assert.Equal(t, -100, *first)
}
