package domain

import (
	"context"
	"log/slog"
)

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves coordinates picked on the map to place details.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

// Location source values.
const (
	LocationSourceReverse  = "reverse"
	LocationSourceOriginal = "original"
	LocationSourceFailed   = "failed"
)

// Location describes a selected map point and, when available, the place it
// falls in.
type Location struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	PlaceName        string  `json:"placeName,omitempty"`
	FormattedAddress string  `json:"formattedAddress,omitempty"`
	Confidence       float64 `json:"confidence,omitempty"`
	Source           string  `json:"source"` // "reverse", "original", "failed"
}

// DescribeLocation reverse geocodes a coordinate pair. Geocoder failures are
// logged and reported through Source rather than returned (graceful
// degradation); the coordinates are always echoed back unchanged.
func DescribeLocation(ctx context.Context, lat, lon float64, geocoder Geocoder, logger *slog.Logger) Location {
	loc := Location{Latitude: lat, Longitude: lon, Source: LocationSourceOriginal}
	if geocoder == nil {
		return loc
	}

	result, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", lat,
			"lon", lon,
			"error", err,
		)
		loc.Source = LocationSourceFailed
		return loc
	}
	if result.FormattedAddress == "" {
		return loc
	}

	loc.PlaceName = result.PlaceName
	loc.FormattedAddress = result.FormattedAddress
	loc.Confidence = result.Confidence
	loc.Source = LocationSourceReverse
	return loc
}

// ValidateCoordinates checks a coordinate pair with the same rules as a
// report's latitude and longitude.
func ValidateCoordinates(lat, lon float64) error {
	_, err := ValidatePartial(map[string]any{FieldLatitude: lat, FieldLongitude: lon})
	return err
}
