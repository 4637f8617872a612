// Package handlers contains the HTTP handlers for the AirAware API. Each
// handler validates its query string with core.Validator, calls a locally
// defined service interface and writes through core.JSON or core.Error.
package handlers

import (
	"net/http"
	"strconv"

	"airaware/internal/types"
)

// cacheControl lets browsers and CDNs reuse a reading for five minutes.
// Upstream data refreshes hourly at best.
const cacheControl = "public, max-age=300"

// pointQuery is the lat/lon pair shared by the point endpoints. Values stay
// strings so the validator can report non-numeric input as a range error.
type pointQuery struct {
	Lat string `query:"lat" validate:"required,latitude"`
	Lon string `query:"lon" validate:"required,longitude"`
}

func readPointQuery(r *http.Request) pointQuery {
	q := r.URL.Query()
	return pointQuery{Lat: q.Get("lat"), Lon: q.Get("lon")}
}

// Point converts a validated query. Validation guarantees both parse.
func (p pointQuery) Point() types.GeoPoint {
	lat, _ := strconv.ParseFloat(p.Lat, 64)
	lon, _ := strconv.ParseFloat(p.Lon, 64)
	return types.GeoPoint{Lat: lat, Lon: lon}
}
