package external

import (
	"context"

	"airaware/internal/types"
)

// AirQualityProvider returns current pollutant readings for a point.
type AirQualityProvider interface {
	Current(ctx context.Context, lat, lon float64) (*types.PollutantSnapshot, error)
}

// WeatherProvider returns current weather for a point. Enabled reports
// whether the provider has credentials; a disabled provider is never called.
type WeatherProvider interface {
	Enabled() bool
	Current(ctx context.Context, lat, lon float64) (*types.Weather, error)
}

// FireProvider returns satellite fire detections within a bounding box.
type FireProvider interface {
	Enabled() bool
	Source() string
	Area(ctx context.Context, bbox types.BBox, days int) ([]types.FireDetection, error)
}

// Geocoder resolves free-text place names.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]types.CityResult, error)
}
