package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `[
  {"id":"syracuse_ny","name":"Syracuse","state":"NY","lat":43.05,"lon":-76.15,"station_id":"GHCND:USW00014771","tags":["US_Top10","NY_Top10"],"annual_average":127.8,"all_time_low":-26},
  {"id":"erie_pa","name":"Erie","state":"PA","lat":42.13,"lon":-80.09,"tags":["US_Top10"],"annual_average":104.3},
  {"id":"watertown_ny","name":"Watertown","state":"NY","station_id":"GHCND:USW00094790","tags":["NY_Top10"]}
]`

func TestParse(t *testing.T) {
	cities, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, cities, 3)

	assert.Equal(t, []string{"syracuse_ny", "erie_pa", "watertown_ny"}, []string{cities[0].ID, cities[1].ID, cities[2].ID}, "file order preserved")

	syr := cities[0]
	require.NotNil(t, syr.Coords)
	assert.Equal(t, domain.Coordinates{Lat: 43.05, Lon: -76.15}, *syr.Coords)
	assert.Equal(t, "GHCND:USW00014771", syr.StationID)
	assert.True(t, syr.HasTag(domain.TagNewYorkTop10))
	assert.Equal(t, 127.8, syr.AnnualAverage)
	require.NotNil(t, syr.AllTimeLow)
	assert.Equal(t, -26.0, *syr.AllTimeLow)

	assert.Nil(t, cities[1].AllTimeLow)
	assert.False(t, cities[1].Linked(domain.LinkStation))

	assert.Nil(t, cities[2].Coords)
	assert.True(t, cities[2].Linked(domain.LinkStation))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"not an array", `{"id":"x"}`, "decode city registry"},
		{"unknown field", `[{"id":"a","name":"A","state":"NY","elevation":10}]`, "unknown field"},
		{"missing id", `[{"name":"A","state":"NY"}]`, "ID"},
		{"bad state", `[{"id":"a","name":"A","state":"New York"}]`, "State"},
		{"latitude out of range", `[{"id":"a","name":"A","state":"NY","lat":95,"lon":-76}]`, "Lat"},
		{"lat without lon", `[{"id":"a","name":"A","state":"NY","lat":43}]`, "Lon"},
		{"negative average", `[{"id":"a","name":"A","state":"NY","annual_average":-1}]`, "AnnualAverage"},
		{"duplicate id", `[{"id":"a","name":"A","state":"NY"},{"id":"a","name":"B","state":"PA"}]`, `duplicate id "a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cities, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, cities, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile_ShippedRegistry(t *testing.T) {
	cities, err := LoadFile(filepath.Join("..", "..", "data", "cities.json"))
	require.NoError(t, err)
	require.NotEmpty(t, cities)

	var national, ny int
	for _, c := range cities {
		if c.HasTag(domain.TagNationalTop10) {
			national++
		}
		if c.HasTag(domain.TagNewYorkTop10) {
			ny++
		}
	}
	assert.Positive(t, national)
	assert.Positive(t, ny)
}
