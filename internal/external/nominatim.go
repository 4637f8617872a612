package external

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"airaware/internal/types"
)

// NominatimClient searches place names through an OpenStreetMap Nominatim
// instance.
type NominatimClient struct {
	base    *BaseClient
	baseURL string
}

// NewNominatimClient builds a client against baseURL
// (e.g. https://nominatim.openstreetmap.org).
func NewNominatimClient(httpClient *http.Client, baseURL string, opts ...BaseClientOption) *NominatimClient {
	opts = append([]BaseClientOption{WithUpstreamCode(types.ErrCodeUpstreamGeocoder)}, opts...)
	return &NominatimClient{
		base:    NewBaseClient(httpClient, "nominatim", DefaultRetryPolicy(), userAgent, opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type nominatimPlace struct {
	DisplayName string  `json:"display_name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// Search returns up to limit matches for query. Nominatim encodes
// coordinates as strings; entries that fail to parse are dropped.
func (c *NominatimClient) Search(ctx context.Context, query string, limit int) ([]types.CityResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(limit))

	var places []nominatimPlace
	if err := c.base.GetJSON(ctx, c.baseURL+"/search?"+q.Encode(), &places); err != nil {
		return nil, err
	}

	out := make([]types.CityResult, 0, len(places))
	for _, p := range places {
		lat, errLat := strconv.ParseFloat(p.Lat, 64)
		lon, errLon := strconv.ParseFloat(p.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		out = append(out, types.CityResult{
			Name:       p.DisplayName,
			Lat:        lat,
			Lon:        lon,
			Type:       p.Type,
			Importance: p.Importance,
		})
	}
	return out, nil
}
