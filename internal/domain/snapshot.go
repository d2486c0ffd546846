package domain

import "time"

// Snapshot file names consumed by the dashboard.
const (
	FileSeasonCurrent = "season_current.json"
	FileSnowfallNY    = "snowfall_ny.json"
	FileColdest       = "coldest_cities.json"
	FileHistory       = "history.json"
)

// StormEvent is a city with notable snowfall in the last 24 hours.
type StormEvent struct {
	CityID  string  `json:"-"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Snow24h float64 `json:"snow_24h"`
	Message string  `json:"message"`
}

// RankedEntry is one row of a snowfall leaderboard.
type RankedEntry struct {
	ID             string   `json:"id"`
	Rank           int      `json:"rank"`
	PreviousRank   int      `json:"previous_rank"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	Tags           []string `json:"tags"`
	TotalSnow      float64  `json:"total_snow"`
	Last24h        float64  `json:"last_24h"`
	AvgAnnual      float64  `json:"avg_annual"`
	SeasonProgress *int     `json:"season_progress,omitempty"`
	TrendPct       *int     `json:"trend_pct,omitempty"`
	Error          bool     `json:"error,omitempty"`
}

// CurrentSnapshot is a persisted current-season snowfall leaderboard.
type CurrentSnapshot struct {
	LastUpdated time.Time     `json:"last_updated"`
	Source      string        `json:"source,omitempty"`
	SeasonStart string        `json:"season_start"`
	SeasonEnd   string        `json:"season_end"`
	StormEvents []StormEvent  `json:"storm_events"`
	Rankings    []RankedEntry `json:"rankings"`
}

// ColdEntry is one row of the coldest-cities leaderboard. Temperatures are °F.
type ColdEntry struct {
	ID               string   `json:"id"`
	Rank             int      `json:"rank"`
	PreviousRank     int      `json:"previous_rank"`
	City             string   `json:"city"`
	State            string   `json:"state"`
	Tags             []string `json:"tags"`
	LowestTemp       float64  `json:"lowest_temp"`
	LowestWindchill  float64  `json:"lowest_windchill"`
	RecordDate       string   `json:"record_date"`
	AllTimeLow       float64  `json:"all_time_low"`
	AllTimeWindchill float64  `json:"all_time_windchill"`
	Error            bool     `json:"error,omitempty"`
}

// ColdSnapshot is the persisted coldest-cities leaderboard.
type ColdSnapshot struct {
	LastUpdated time.Time   `json:"last_updated"`
	Source      string      `json:"source,omitempty"`
	SeasonStart string      `json:"season_start"`
	SeasonEnd   string      `json:"season_end"`
	Rankings    []ColdEntry `json:"rankings"`
}

// HistoryMeta describes a historical archive.
type HistoryMeta struct {
	GeneratedAt time.Time `json:"generated_at"`
	StartSeason Season    `json:"start_season"`
	EndSeason   Season    `json:"end_season"`
	Source      string    `json:"source"`
}

// HistorySnapshot maps city id to rounded season totals.
type HistorySnapshot struct {
	Meta   HistoryMeta             `json:"meta"`
	Cities map[string]SeasonTotals `json:"cities"`
}
