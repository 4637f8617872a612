package external

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"airaware/internal/aqi"
	"airaware/internal/types"
)

// OpenMeteoSource is reported as the snapshot's last_updated value.
const OpenMeteoSource = "Open-Meteo"

var openMeteoCurrent = strings.Join([]string{
	"us_aqi", "pm2_5", "pm10", "nitrogen_dioxide", "ozone", "sulphur_dioxide", "carbon_monoxide",
}, ",")

// OpenMeteoClient reads current air quality from the Open-Meteo air quality
// API. No key is required.
type OpenMeteoClient struct {
	base    *BaseClient
	baseURL string
}

// NewOpenMeteoClient builds a client against baseURL
// (e.g. https://air-quality-api.open-meteo.com).
func NewOpenMeteoClient(httpClient *http.Client, baseURL string, opts ...BaseClientOption) *OpenMeteoClient {
	opts = append([]BaseClientOption{WithUpstreamCode(types.ErrCodeUpstreamAirQuality)}, opts...)
	return &OpenMeteoClient{
		base:    NewBaseClient(httpClient, "open-meteo", DefaultRetryPolicy(), userAgent, opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type openMeteoResponse struct {
	Current struct {
		USAQI           *float64 `json:"us_aqi"`
		PM25            *float64 `json:"pm2_5"`
		PM10            *float64 `json:"pm10"`
		NitrogenDioxide *float64 `json:"nitrogen_dioxide"`
		Ozone           *float64 `json:"ozone"`
		SulphurDioxide  *float64 `json:"sulphur_dioxide"`
		CarbonMonoxide  *float64 `json:"carbon_monoxide"`
	} `json:"current"`
}

// Current returns the pollutant snapshot at (lat, lon). Values are rounded to
// one decimal; AQI falls back to the PM2.5 breakpoint formula when the API
// omits us_aqi.
func (c *OpenMeteoClient) Current(ctx context.Context, lat, lon float64) (*types.PollutantSnapshot, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", openMeteoCurrent)

	var body openMeteoResponse
	if err := c.base.GetJSON(ctx, c.baseURL+"/v1/air-quality?"+q.Encode(), &body); err != nil {
		return nil, err
	}

	cur := body.Current
	snap := &types.PollutantSnapshot{
		PM25:        round1(cur.PM25),
		PM10:        round1(cur.PM10),
		NO2:         round1(cur.NitrogenDioxide),
		O3:          round1(cur.Ozone),
		SO2:         round1(cur.SulphurDioxide),
		CO:          round1(cur.CarbonMonoxide),
		LastUpdated: types.StringPtr(OpenMeteoSource),
	}
	switch {
	case cur.USAQI != nil:
		// Fractional index values truncate.
		snap.AQI = types.IntPtr(int(*cur.USAQI))
	case cur.PM25 != nil:
		// The unrounded reading decides the breakpoint segment.
		snap.AQI = types.IntPtr(aqi.FromPM25(*cur.PM25))
	}
	snap.Category = aqi.Category(snap.AQI)
	return snap, nil
}

// round1 rounds to one decimal from the exact binary value, so 0.35 (stored
// as 0.34999...) gives 0.3 and exact ties go to even.
func round1(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(*v, 'f', 1, 64), 64)
	if err != nil {
		return types.Float64Ptr(*v)
	}
	return types.Float64Ptr(r)
}
