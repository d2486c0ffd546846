package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// ResolveLinkage returns the city ready for a source that needs linkage l.
// Cities without coordinates are forward-geocoded when a geocoder is
// available; anything still unlinked yields ErrMissingLinkage.
func ResolveLinkage(ctx context.Context, city City, l Linkage, geocoder Geocoder, logger *slog.Logger) (City, error) {
	if city.Linked(l) {
		return city, nil
	}
	if l == LinkStation || geocoder == nil || city.Name == "" {
		return city, fmt.Errorf("%w: %s has no %s", ErrMissingLinkage, city.ID, l)
	}

	result, err := geocoder.ForwardGeocode(ctx, city.Name, city.State)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"city", city.ID,
			"name", city.Name,
			"state", city.State,
			"error", err,
		)
		return city, fmt.Errorf("%w: %s has no coordinates and geocoding failed", ErrMissingLinkage, city.ID)
	}
	if result.Lat == 0 && result.Lon == 0 {
		return city, fmt.Errorf("%w: %s has no coordinates and geocoding found nothing", ErrMissingLinkage, city.ID)
	}

	logger.Debug("geocoded city",
		"city", city.ID,
		"place", result.FormattedAddress,
		"confidence", result.Confidence,
	)
	city.Coords = &Coordinates{Lat: result.Lat, Lon: result.Lon}
	return city, nil
}
