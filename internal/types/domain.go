package types

import (
	"fmt"
	"math"
	"time"
)

// GeoPoint is a WGS84 coordinate in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Layer identifies a map data layer. Every PollutantKey is a layer; LayerAQI is
// the composite index layer, which draws a marker but no heat map.
type Layer = string

// PollutantKey names one of the six tracked species.
type PollutantKey = string

const (
	PollutantPM25 PollutantKey = "pm25"
	PollutantPM10 PollutantKey = "pm10"
	PollutantNO2  PollutantKey = "no2"
	PollutantO3   PollutantKey = "o3"
	PollutantSO2  PollutantKey = "so2"
	PollutantCO   PollutantKey = "co"

	LayerAQI Layer = "aqi"
)

// PollutantKeys lists the tracked pollutants in display order.
var PollutantKeys = []PollutantKey{
	PollutantPM25,
	PollutantPM10,
	PollutantNO2,
	PollutantO3,
	PollutantSO2,
	PollutantCO,
}

// IsPollutant reports whether key is one of PollutantKeys.
func IsPollutant(key string) bool {
	for _, k := range PollutantKeys {
		if k == key {
			return true
		}
	}
	return false
}

// IsLayer reports whether layer is a selectable map layer.
func IsLayer(layer string) bool {
	return layer == LayerAQI || IsPollutant(layer)
}

// PollutantSnapshot is the measured concentration set for one location.
// Concentrations are μg/m³; absent measurements are nil and serialize as null.
type PollutantSnapshot struct {
	PM25        *float64 `json:"pm25"`
	PM10        *float64 `json:"pm10"`
	NO2         *float64 `json:"no2"`
	O3          *float64 `json:"o3"`
	SO2         *float64 `json:"so2"`
	CO          *float64 `json:"co"`
	AQI         *int     `json:"aqi"`
	Category    string   `json:"category"`
	LastUpdated *string  `json:"last_updated"`
}

// Value returns the concentration for key. Absent measurements and unknown
// keys read as 0. The "aqi" key reads the index value.
func (s *PollutantSnapshot) Value(key string) float64 {
	if s == nil {
		return 0
	}
	var v *float64
	switch key {
	case PollutantPM25:
		v = s.PM25
	case PollutantPM10:
		v = s.PM10
	case PollutantNO2:
		v = s.NO2
	case PollutantO3:
		v = s.O3
	case PollutantSO2:
		v = s.SO2
	case PollutantCO:
		v = s.CO
	case LayerAQI:
		if s.AQI != nil {
			return float64(*s.AQI)
		}
	}
	if v == nil {
		return 0
	}
	return *v
}

// Availability reports which layers carry a positive reading.
func (s *PollutantSnapshot) Availability() map[Layer]bool {
	out := make(map[Layer]bool, len(PollutantKeys)+1)
	for _, k := range PollutantKeys {
		out[k] = s.Value(k) > 0
	}
	out[LayerAQI] = s.Value(LayerAQI) > 0
	return out
}

// EmptySnapshot is returned when no upstream measurement could be obtained.
func EmptySnapshot() *PollutantSnapshot {
	return &PollutantSnapshot{Category: CategoryUnavailable}
}

// CategoryUnavailable is the category label used when no AQI is known.
const CategoryUnavailable = "N/A"

// AirQualityReport combines the headline air quality reading with current
// weather for the marker popup.
type AirQualityReport struct {
	City        string   `json:"city"`
	AQI         *int     `json:"aqi"`
	PM25        *float64 `json:"pm25"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Category    string   `json:"category"`

	// Presentation hints for the marker popup.
	MarkerColor    string `json:"marker_color"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Weather is the subset of current conditions the dashboard shows.
type Weather struct {
	City        string   `json:"city"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

// BBox is a west,south,east,north bounding box in degrees.
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Validate checks ordering and coordinate ranges.
func (b BBox) Validate() error {
	switch {
	case b.South < -90 || b.North > 90:
		return fmt.Errorf("latitude out of range")
	case b.West < -180 || b.East > 180:
		return fmt.Errorf("longitude out of range")
	case b.South >= b.North:
		return fmt.Errorf("south must be less than north")
	case b.West >= b.East:
		return fmt.Errorf("west must be less than east")
	}
	return nil
}

// String formats the box as the comma list used by the FIRMS area API.
func (b BBox) String() string {
	return fmt.Sprintf("%s,%s,%s,%s", fmtCoord(b.West), fmtCoord(b.South), fmtCoord(b.East), fmtCoord(b.North))
}

func fmtCoord(v float64) string {
	return fmt.Sprintf("%.4f", math.Round(v*1e4)/1e4)
}

// FireDetection is a single active-fire hot spot from the FIRMS feed.
type FireDetection struct {
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	Brightness *float64 `json:"brightness"`
	FRP        *float64 `json:"frp"`
	Confidence string   `json:"confidence"`
	AcqDate    string   `json:"acq_date"`
	AcqTime    string   `json:"acq_time"`
	Satellite  string   `json:"satellite,omitempty"`
	DayNight   string   `json:"daynight,omitempty"`
	DistanceM  *float64 `json:"distance_m,omitempty"`
}

// FireCollection is the wildfire layer payload.
type FireCollection struct {
	BBox      BBox            `json:"bbox"`
	Days      int             `json:"days"`
	Source    string          `json:"source"`
	Count     int             `json:"count"`
	Fires     []FireDetection `json:"fires"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// CityResult is one ranked geocoder match.
type CityResult struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Type       string  `json:"type"`
	Importance float64 `json:"importance"`
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }
