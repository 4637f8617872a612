package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"airaware/internal/airquality"
	"airaware/internal/core"
	"airaware/internal/types"
)

type mockDashboard struct {
	AirQualityFn func(ctx context.Context, p types.GeoPoint) (*types.AirQualityReport, error)
	PollutantsFn func(ctx context.Context, p types.GeoPoint) (*airquality.PollutantsView, error)
	HeatMapFn    func(ctx context.Context, p types.GeoPoint, layer types.Layer) (*airquality.HeatMap, error)
}

func (m *mockDashboard) GetAirQuality(ctx context.Context, p types.GeoPoint) (*types.AirQualityReport, error) {
	return m.AirQualityFn(ctx, p)
}

func (m *mockDashboard) GetPollutants(ctx context.Context, p types.GeoPoint) (*airquality.PollutantsView, error) {
	return m.PollutantsFn(ctx, p)
}

func (m *mockDashboard) GetHeatMap(ctx context.Context, p types.GeoPoint, layer types.Layer) (*airquality.HeatMap, error) {
	return m.HeatMapFn(ctx, p, layer)
}

type mockFires struct {
	FiresFn     func(ctx context.Context, bbox types.BBox, days int) (*types.FireCollection, error)
	FiresNearFn func(ctx context.Context, p types.GeoPoint, days int) (*types.FireCollection, error)
}

func (m *mockFires) GetFires(ctx context.Context, bbox types.BBox, days int) (*types.FireCollection, error) {
	return m.FiresFn(ctx, bbox, days)
}

func (m *mockFires) GetFiresNear(ctx context.Context, p types.GeoPoint, days int) (*types.FireCollection, error) {
	return m.FiresNearFn(ctx, p, days)
}

type mockCities struct {
	SearchFn func(ctx context.Context, query string) ([]types.CityResult, error)
}

func (m *mockCities) SearchCities(ctx context.Context, query string) ([]types.CityResult, error) {
	return m.SearchFn(ctx, query)
}

type registrar interface {
	RegisterRoutes(r chi.Router)
}

func testValidator() *core.Validator {
	return core.NewValidator(slog.New(slog.DiscardHandler))
}

func newRouter(h registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(core.RequestIDMiddleware)
	r.Route("/api", h.RegisterRoutes)
	return r
}

func doGet(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("X-Request-Id", "req-test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) core.ErrorDetail {
	t.Helper()
	var body core.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func unexpected(t *testing.T) {
	t.Helper()
	t.Fatal("service must not be called")
}
