package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"airaware/internal/core"
	"airaware/internal/types"
)

// FireService is the wildfire part of airquality.Service.
type FireService interface {
	GetFires(ctx context.Context, bbox types.BBox, days int) (*types.FireCollection, error)
	GetFiresNear(ctx context.Context, p types.GeoPoint, days int) (*types.FireCollection, error)
}

// FireHandler serves the wildfire layer.
type FireHandler struct {
	service   FireService
	validator *core.Validator
	logger    *slog.Logger
}

// NewFireHandler creates a FireHandler.
func NewFireHandler(svc FireService, val *core.Validator, logger *slog.Logger) *FireHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FireHandler{service: svc, validator: val, logger: logger}
}

// RegisterRoutes mounts the fire endpoint.
func (h *FireHandler) RegisterRoutes(r chi.Router) {
	r.Get("/fires", h.HandleFires)
}

type fireQuery struct {
	BBox string `query:"bbox" validate:"omitempty,is_bbox"`
	Lat  string `query:"lat" validate:"omitempty,latitude"`
	Lon  string `query:"lon" validate:"omitempty,longitude"`
	Days string `query:"days" validate:"omitempty,number"`
}

// HandleFires handles GET /api/fires. Either bbox=w,s,e,n or lat&lon must be
// given; bbox wins when both are. The point form sorts fires nearest first.
func (h *FireHandler) HandleFires(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := fireQuery{BBox: v.Get("bbox"), Lat: v.Get("lat"), Lon: v.Get("lon"), Days: v.Get("days")}
	if err := h.validator.ValidateStruct(q); err != nil {
		core.Error(w, r, err)
		return
	}
	if q.BBox == "" && (q.Lat == "" || q.Lon == "") {
		core.Error(w, r, types.NewAppErrorWithDetails(types.ErrCodeValidationMissingField,
			"either bbox or lat and lon is required", nil,
			map[string]any{"fields": map[string]any{"bbox": "required_without", "lat": "required_without", "lon": "required_without"}}))
		return
	}

	days := 0
	if q.Days != "" {
		n, err := strconv.Atoi(q.Days)
		if err != nil {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidDays, "days must be an integer", err))
			return
		}
		days = n
	}

	var (
		coll *types.FireCollection
		err  error
	)
	if q.BBox != "" {
		bbox, perr := core.ParseBBox(q.BBox)
		if perr != nil {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidBBox, perr.Error(), perr))
			return
		}
		coll, err = h.service.GetFires(r.Context(), bbox, days)
	} else {
		coll, err = h.service.GetFiresNear(r.Context(), pointQuery{Lat: q.Lat, Lon: q.Lon}.Point(), days)
	}
	if err != nil {
		core.Error(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", cacheControl)
	core.JSON(w, r, http.StatusOK, coll)
}
