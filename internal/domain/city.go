package domain

import "slices"

// Leaderboard tags used in the city registry.
const (
	TagNationalTop10 = "US_Top10"
	TagNewYorkTop10  = "NY_Top10"
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// City is one tracked location from the static registry.
type City struct {
	ID        string
	Name      string
	State     string
	Coords    *Coordinates
	StationID string
	Tags      []string

	// Display-side reference values; not used for aggregation.
	AnnualAverage float64
	AllTimeLow    *float64
}

// HasTag reports whether the city carries the given leaderboard tag.
func (c City) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// Linkage names the identifier a weather source needs to locate a city.
type Linkage int

const (
	// LinkCoordinates sources are queried by latitude/longitude.
	LinkCoordinates Linkage = iota
	// LinkStation sources are queried by ground-station identifier.
	LinkStation
)

func (l Linkage) String() string {
	if l == LinkStation {
		return "station"
	}
	return "coordinates"
}

// Linked reports whether the city carries the identifier required by l.
func (c City) Linked(l Linkage) bool {
	switch l {
	case LinkStation:
		return c.StationID != ""
	default:
		return c.Coords != nil
	}
}
