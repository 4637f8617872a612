package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"airaware/internal/core"
	"airaware/internal/types"
)

// CityService resolves place names.
type CityService interface {
	SearchCities(ctx context.Context, query string) ([]types.CityResult, error)
}

// CityHandler serves the search box.
type CityHandler struct {
	service   CityService
	validator *core.Validator
	logger    *slog.Logger
}

// NewCityHandler creates a CityHandler.
func NewCityHandler(svc CityService, val *core.Validator, logger *slog.Logger) *CityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CityHandler{service: svc, validator: val, logger: logger}
}

// RegisterRoutes mounts the city search endpoint.
func (h *CityHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cities", h.HandleSearch)
}

type cityQuery struct {
	Q string `query:"q" validate:"max=200"`
}

type cityResponse struct {
	Query   string             `json:"query"`
	Results []types.CityResult `json:"results"`
}

// HandleSearch handles GET /api/cities?q. Short queries answer with an empty
// result list rather than an error so the search box can call on every
// keystroke.
func (h *CityHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := cityQuery{Q: r.URL.Query().Get("q")}
	if err := h.validator.ValidateStruct(q); err != nil {
		core.Error(w, r, err)
		return
	}

	results, err := h.service.SearchCities(r.Context(), q.Q)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, cityResponse{Query: q.Q, Results: results})
}
