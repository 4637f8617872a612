package heatmap

import "airaware/internal/types"

// Band holds the concentration cut points that bucket severity for one
// pollutant.
type Band struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// bands is keyed by pollutant. pm10 has no entry and uses the pm25 band.
var bands = map[string]Band{
	types.PollutantPM25: {Low: 12, Medium: 35, High: 55},
	types.PollutantNO2:  {Low: 40, Medium: 80, High: 180},
	types.PollutantO3:   {Low: 100, Medium: 160, High: 240},
	types.PollutantSO2:  {Low: 20, Medium: 80, High: 250},
	types.PollutantCO:   {Low: 4, Medium: 9, High: 15},
}

var colors = map[string]string{
	types.PollutantPM25: "#ff6b6b",
	types.PollutantPM10: "#ffa726",
	types.PollutantNO2:  "#42a5f5",
	types.PollutantO3:   "#66bb6a",
	types.PollutantSO2:  "#ab47bc",
	types.PollutantCO:   "#8d6e63",
}

// DefaultColor is drawn for layers missing from the color table.
const DefaultColor = "#778da9"

// BandFor returns the threshold band for key, falling back to the pm25 band.
func BandFor(key string) Band {
	if b, ok := bands[key]; ok {
		return b
	}
	return bands[types.PollutantPM25]
}

// ColorFor returns the layer color for key, falling back to DefaultColor.
func ColorFor(key string) string {
	if c, ok := colors[key]; ok {
		return c
	}
	return DefaultColor
}
