package airquality

import (
	"context"
	"sync/atomic"
	"time"

	"airaware/internal/types"
)

type mockAirQuality struct {
	calls     atomic.Int32
	CurrentFn func(ctx context.Context, lat, lon float64) (*types.PollutantSnapshot, error)
}

func (m *mockAirQuality) Current(ctx context.Context, lat, lon float64) (*types.PollutantSnapshot, error) {
	m.calls.Add(1)
	return m.CurrentFn(ctx, lat, lon)
}

type mockWeather struct {
	enabled   bool
	calls     atomic.Int32
	CurrentFn func(ctx context.Context, lat, lon float64) (*types.Weather, error)
}

func (m *mockWeather) Enabled() bool { return m.enabled }

func (m *mockWeather) Current(ctx context.Context, lat, lon float64) (*types.Weather, error) {
	m.calls.Add(1)
	return m.CurrentFn(ctx, lat, lon)
}

type mockFires struct {
	enabled bool
	calls   atomic.Int32
	AreaFn  func(ctx context.Context, bbox types.BBox, days int) ([]types.FireDetection, error)
}

func (m *mockFires) Enabled() bool  { return m.enabled }
func (m *mockFires) Source() string { return "VIIRS_SNPP_NRT" }

func (m *mockFires) Area(ctx context.Context, bbox types.BBox, days int) ([]types.FireDetection, error) {
	m.calls.Add(1)
	return m.AreaFn(ctx, bbox, days)
}

type mockGeocoder struct {
	calls    atomic.Int32
	SearchFn func(ctx context.Context, query string, limit int) ([]types.CityResult, error)
}

func (m *mockGeocoder) Search(ctx context.Context, query string, limit int) ([]types.CityResult, error) {
	m.calls.Add(1)
	return m.SearchFn(ctx, query, limit)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
