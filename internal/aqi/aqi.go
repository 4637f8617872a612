// Package aqi converts pollutant concentrations to US EPA Air Quality Index
// values and maps index values to display categories and advice.
package aqi

import (
	"math"
	"strings"

	"airaware/internal/types"
)

// Category labels, ordered from best to worst.
const (
	CategoryGood          = "Good"
	CategoryModerate      = "Moderate"
	CategorySensitive     = "Unhealthy for Sensitive Groups"
	CategoryUnhealthy     = "Unhealthy"
	CategoryVeryUnhealthy = "Very Unhealthy"
	CategoryHazardous     = "Hazardous"
)

// UnknownMarkerColor is used when no category is known.
const UnknownMarkerColor = "#808080"

// segment is one linear piece of the PM2.5 breakpoint table.
type segment struct {
	cLow, cHigh float64
	iLow, iHigh float64
}

// pm25Segments is the simplified EPA table. Readings above 150.4 all use the
// last segment, which keeps extrapolating past 300.
var pm25Segments = []struct {
	upTo float64
	seg  segment
}{
	{12.0, segment{0, 12.0, 0, 50}},
	{35.4, segment{12.1, 35.4, 51, 100}},
	{55.4, segment{35.5, 55.4, 101, 150}},
	{150.4, segment{55.5, 150.4, 151, 200}},
	{math.Inf(1), segment{150.5, 250.4, 201, 300}},
}

// FromPM25 converts a PM2.5 concentration in μg/m³ to an AQI value. Halves
// round to even.
func FromPM25(pm25 float64) int {
	for _, s := range pm25Segments {
		if pm25 <= s.upTo {
			g := s.seg
			return int(math.RoundToEven((g.iHigh-g.iLow)/(g.cHigh-g.cLow)*(pm25-g.cLow) + g.iLow))
		}
	}
	// NaN falls through every comparison.
	return 0
}

// Category names the band an AQI value falls in. A nil value is "N/A".
func Category(aqi *int) string {
	if aqi == nil {
		return types.CategoryUnavailable
	}
	v := *aqi
	switch {
	case v <= 50:
		return CategoryGood
	case v <= 100:
		return CategoryModerate
	case v <= 150:
		return CategorySensitive
	case v <= 200:
		return CategoryUnhealthy
	case v <= 300:
		return CategoryVeryUnhealthy
	default:
		return CategoryHazardous
	}
}

// Recommendation returns outdoor-activity advice for an AQI value.
func Recommendation(aqi int) string {
	switch {
	case aqi <= 50:
		return "Air quality is excellent! Perfect for outdoor activities."
	case aqi <= 100:
		return "Air quality is acceptable for most people."
	case aqi <= 150:
		return "Sensitive groups should limit outdoor activity."
	case aqi <= 200:
		return "Everyone should limit prolonged outdoor exertion."
	case aqi <= 300:
		return "Everyone should avoid outdoor activity."
	default:
		return "Health alert! Stay indoors and keep windows closed."
	}
}

// MarkerColor returns the map marker color for a category label. Matching is
// by substring so "Unhealthy for Sensitive Groups" is tested before the
// plain "Unhealthy" label.
func MarkerColor(category string) string {
	switch {
	case category == "":
		return UnknownMarkerColor
	case strings.Contains(category, CategoryGood):
		return "#00e400"
	case strings.Contains(category, CategoryModerate):
		return "#ffff00"
	case strings.Contains(category, "Unhealthy for"):
		return "#ff7e00"
	case strings.Contains(category, CategoryVeryUnhealthy):
		return "#ff0000"
	case strings.Contains(category, CategoryUnhealthy):
		return "#ff7e00"
	case strings.Contains(category, CategoryHazardous):
		return "#7e0023"
	default:
		return UnknownMarkerColor
	}
}
