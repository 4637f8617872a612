package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"airaware/internal/airquality"
	"airaware/internal/core"
	"airaware/internal/heatmap"
	"airaware/internal/types"
)

// DashboardService is the part of airquality.Service the point endpoints use.
type DashboardService interface {
	GetAirQuality(ctx context.Context, p types.GeoPoint) (*types.AirQualityReport, error)
	GetPollutants(ctx context.Context, p types.GeoPoint) (*airquality.PollutantsView, error)
	GetHeatMap(ctx context.Context, p types.GeoPoint, layer types.Layer) (*airquality.HeatMap, error)
}

// DashboardHandler serves the marker popup, the layer panel and the heat map.
type DashboardHandler struct {
	service   DashboardService
	validator *core.Validator
	logger    *slog.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(svc DashboardService, val *core.Validator, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{service: svc, validator: val, logger: logger}
}

// RegisterRoutes mounts the point endpoints.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/airquality", h.HandleAirQuality)
	r.Get("/pollutants", h.HandlePollutants)
	r.Get("/heatmap", h.HandleHeatMap)
}

// HandleAirQuality handles GET /api/airquality?lat&lon.
func (h *DashboardHandler) HandleAirQuality(w http.ResponseWriter, r *http.Request) {
	q := readPointQuery(r)
	if err := h.validator.ValidateStruct(q); err != nil {
		core.Error(w, r, err)
		return
	}

	report, err := h.service.GetAirQuality(r.Context(), q.Point())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", cacheControl)
	core.JSON(w, r, http.StatusOK, report)
}

// HandlePollutants handles GET /api/pollutants?lat&lon.
func (h *DashboardHandler) HandlePollutants(w http.ResponseWriter, r *http.Request) {
	q := readPointQuery(r)
	if err := h.validator.ValidateStruct(q); err != nil {
		core.Error(w, r, err)
		return
	}

	view, err := h.service.GetPollutants(r.Context(), q.Point())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", cacheControl)
	core.JSON(w, r, http.StatusOK, view)
}

type heatMapQuery struct {
	Lat    string `query:"lat" validate:"required,latitude"`
	Lon    string `query:"lon" validate:"required,longitude"`
	Layer  string `query:"layer" validate:"required,is_layer"`
	Format string `query:"format" validate:"omitempty,oneof=json geojson"`
}

// HandleHeatMap handles GET /api/heatmap?lat&lon&layer[&format=geojson].
// layer defaults to pm25. The geojson format answers with a
// FeatureCollection as application/geo+json.
func (h *DashboardHandler) HandleHeatMap(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := heatMapQuery{Lat: v.Get("lat"), Lon: v.Get("lon"), Layer: v.Get("layer"), Format: v.Get("format")}
	if q.Layer == "" {
		q.Layer = types.PollutantPM25
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		core.Error(w, r, err)
		return
	}

	hm, err := h.service.GetHeatMap(r.Context(), pointQuery{Lat: q.Lat, Lon: q.Lon}.Point(), q.Layer)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", cacheControl)
	if q.Format == "geojson" {
		w.Header().Set("Content-Type", "application/geo+json")
		core.JSON(w, r, http.StatusOK, heatmap.ToGeoJSON(hm.Shapes))
		return
	}
	core.JSON(w, r, http.StatusOK, hm)
}
