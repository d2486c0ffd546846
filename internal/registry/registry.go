// Package registry loads the static list of tracked cities.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// record is one entry of cities.json.
type record struct {
	ID            string   `json:"id" validate:"required,max=64"`
	Name          string   `json:"name" validate:"required"`
	State         string   `json:"state" validate:"required,len=2,uppercase"`
	Lat           *float64 `json:"lat" validate:"required_with=Lon,omitempty,latitude"`
	Lon           *float64 `json:"lon" validate:"required_with=Lat,omitempty,longitude"`
	StationID     string   `json:"station_id"`
	Tags          []string `json:"tags" validate:"dive,required"`
	AnnualAverage float64  `json:"annual_average" validate:"gte=0"`
	AllTimeLow    *float64 `json:"all_time_low"`
}

func (r record) city() domain.City {
	c := domain.City{
		ID:            r.ID,
		Name:          r.Name,
		State:         r.State,
		StationID:     strings.TrimSpace(r.StationID),
		Tags:          r.Tags,
		AnnualAverage: r.AnnualAverage,
		AllTimeLow:    r.AllTimeLow,
	}
	if r.Lat != nil && r.Lon != nil {
		c.Coords = &domain.Coordinates{Lat: *r.Lat, Lon: *r.Lon}
	}
	return c
}

// LoadFile reads and validates the registry at path.
func LoadFile(path string) ([]domain.City, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read city registry: %w", err)
	}
	cities, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cities, nil
}

// Parse decodes a JSON array of cities, preserving file order. It rejects
// unknown fields, invalid records and duplicate ids.
func Parse(data []byte) ([]domain.City, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var records []record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode city registry: %w", err)
	}

	seen := make(map[string]int, len(records))
	cities := make([]domain.City, 0, len(records))
	var errs []error
	for i, r := range records {
		if err := validate.Struct(r); err != nil {
			errs = append(errs, fmt.Errorf("city %d (%q): %w", i, r.ID, err))
			continue
		}
		if first, dup := seen[r.ID]; dup {
			errs = append(errs, fmt.Errorf("city %d: duplicate id %q (first at %d)", i, r.ID, first))
			continue
		}
		seen[r.ID] = i
		cities = append(cities, r.city())
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cities, nil
}
