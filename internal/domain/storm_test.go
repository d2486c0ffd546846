package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func posInf() float64 { return math.Inf(1) }

func TestExtractStormEvents(t *testing.T) {
	results := []SnowResult{
		{City: City{ID: "a", Name: "Aspen", State: "CO"}, Last24h: 5.2},
		{City: City{ID: "b", Name: "Buffalo", State: "NY"}, Last24h: 3.9},
		{City: City{ID: "c", Name: "Caribou", State: "ME"}, Last24h: 4.0},
		{City: City{ID: "d", Name: "Duluth", State: "MN"}, Last24h: 0.0},
	}

	events := ExtractStormEvents(results, DefaultStormThreshold)
	require.Len(t, events, 2)
	assert.Equal(t, 5.2, events[0].Snow24h)
	assert.Equal(t, 4.0, events[1].Snow24h)
	assert.Equal(t, "Aspen", events[0].City)
	assert.Equal(t, "a", events[0].CityID)
	assert.Equal(t, `Aspen just got 5.2" of fresh powder!`, events[0].Message)
	assert.Equal(t, `Caribou just got 4" of fresh powder!`, events[1].Message)
}

func TestExtractStormEvents_UsesRoundedValue(t *testing.T) {
	results := []SnowResult{
		{City: City{ID: "a", Name: "A"}, Last24h: 3.96},
		{City: City{ID: "b", Name: "B"}, Last24h: 3.94},
	}
	events := ExtractStormEvents(results, DefaultStormThreshold)
	require.Len(t, events, 1)
	assert.Equal(t, "a", events[0].CityID)
}

func TestExtractStormEvents_SkipsFailed(t *testing.T) {
	results := []SnowResult{
		{City: City{ID: "a", Name: "A"}, Last24h: 9, Failed: true},
	}
	events := ExtractStormEvents(results, DefaultStormThreshold)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestExtractStormEvents_StableOnTies(t *testing.T) {
	results := []SnowResult{
		{City: City{ID: "first", Name: "First"}, Last24h: 6},
		{City: City{ID: "big", Name: "Big"}, Last24h: 8},
		{City: City{ID: "second", Name: "Second"}, Last24h: 6},
	}
	events := ExtractStormEvents(results, DefaultStormThreshold)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"big", "first", "second"}, []string{events[0].CityID, events[1].CityID, events[2].CityID})
}
