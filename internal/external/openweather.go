package external

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"airaware/internal/types"
)

// OpenWeatherClient reads current conditions from OpenWeatherMap. It is
// disabled when no API key is configured.
type OpenWeatherClient struct {
	base    *BaseClient
	baseURL string
	apiKey  types.SecretString
}

// NewOpenWeatherClient builds a client against baseURL
// (e.g. https://api.openweathermap.org).
func NewOpenWeatherClient(httpClient *http.Client, baseURL string, apiKey types.SecretString, opts ...BaseClientOption) *OpenWeatherClient {
	opts = append([]BaseClientOption{WithUpstreamCode(types.ErrCodeUpstreamWeather)}, opts...)
	return &OpenWeatherClient{
		base:    NewBaseClient(httpClient, "openweather", DefaultRetryPolicy(), userAgent, opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Enabled reports whether an API key is configured.
func (c *OpenWeatherClient) Enabled() bool { return c.apiKey.IsSet() }

type openWeatherResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
}

// Current returns the city name, temperature in Celsius (one decimal) and
// relative humidity at (lat, lon).
func (c *OpenWeatherClient) Current(ctx context.Context, lat, lon float64) (*types.Weather, error) {
	if !c.Enabled() {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "weather provider is not configured", nil)
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", c.apiKey.Unmask())
	q.Set("units", "metric")

	var body openWeatherResponse
	if err := c.base.GetJSON(ctx, c.baseURL+"/data/2.5/weather?"+q.Encode(), &body); err != nil {
		return nil, err
	}

	w := &types.Weather{City: body.Name, Humidity: body.Main.Humidity}
	w.Temperature = round1(body.Main.Temp)
	return w, nil
}
