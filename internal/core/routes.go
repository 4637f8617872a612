package core

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"

	"airaware/internal/types"
)

// defaultRequestTimeout applies when the config leaves REQUEST_TIMEOUT
// unset.
const defaultRequestTimeout = 30 * time.Second

// defaultRedactedHeaders are masked in request logs.
var defaultRedactedHeaders = []string{
	"Authorization",
	"Cookie",
	"X-Api-Key",
}

// MountRoutes registers the global middleware chain, the /api group and the
// top-level routes.
func (s *Server) MountRoutes() {
	s.registerGlobalMiddleware()

	s.router.NotFound(s.handleNotFound)
	s.router.MethodNotAllowed(s.handleNotFound)

	s.router.Get("/", s.HandleInfo)
	s.router.Get("/health", s.HandleHealth)
	if s.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.RateLimit)
		for _, registrar := range s.APIRouteRegistrars {
			registrar(r)
		}
	})
}

// registerGlobalMiddleware applies middleware in strict order.
//
//  1. Recoverer       - outermost, catches every panic.
//  2. ContextTimeout  - soft deadline shared by all upstream calls.
//  3. RequestID       - correlation id for logs and upstream requests.
//  4. SecurityHeaders - present even on error responses.
//  5. RequestLogger   - structured access log (redacted headers).
//  6. CORS            - browser access for the map frontend.
//  7. Metrics         - count and latency per route pattern.
//  8. Compression     - gzip for the large GeoJSON payloads.
func (s *Server) registerGlobalMiddleware() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.requestTimeout()))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(s.SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))
	s.router.Use(NewCORSMiddleware(s.corsAllowedOrigins()))
	s.router.Use(s.MetricsMiddleware)
	s.router.Use(CompressionMiddleware)
}

func (s *Server) requestTimeout() time.Duration {
	if s.Config != nil && s.Config.Server.RequestTimeout > 0 {
		return s.Config.Server.RequestTimeout
	}
	return defaultRequestTimeout
}

func (s *Server) corsAllowedOrigins() []string {
	if s.Config != nil && len(s.Config.Server.CorsAllowedOrigins) > 0 {
		return s.Config.Server.CorsAllowedOrigins
	}
	return []string{"*"}
}

// ContextTimeoutMiddleware sets a deadline on the request context. Handlers
// observe it through cancelled upstream calls.
func ContextTimeoutMiddleware(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware reuses an incoming X-Request-Id or generates a UUID,
// stores it via types.WithRequestID and echoes it in the response header.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}

		ctx := types.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CompressionMiddleware gzips responses for clients that accept it.
func CompressionMiddleware(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

type serviceInfo struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Commit    string            `json:"commit"`
	Endpoints map[string]string `json:"endpoints"`
}

// HandleInfo confirms the server is running and lists the endpoints.
func (s *Server) HandleInfo(w http.ResponseWriter, r *http.Request) {
	info := serviceInfo{
		Status:  "online",
		Message: "AirAware API",
		Endpoints: map[string]string{
			"health":      "/health",
			"metrics":     "/metrics",
			"air_quality": "/api/airquality?lat=LAT&lon=LON",
			"pollutants":  "/api/pollutants?lat=LAT&lon=LON",
			"heatmap":     "/api/heatmap?lat=LAT&lon=LON&layer=LAYER[&format=geojson]",
			"fires":       "/api/fires?lat=LAT&lon=LON[&days=N] | ?bbox=W,S,E,N[&days=N]",
			"cities":      "/api/cities?q=QUERY",
		},
	}
	if s.Config != nil {
		info.Service = s.Config.Service
		info.Version = s.Config.Build.Version
		info.Commit = s.Config.Build.Commit
	}
	JSON(w, r, http.StatusOK, info)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, r, types.NewAppErrorWithDetails(types.ErrCodeNotFoundRoute, "route not found", nil,
		map[string]any{"method": r.Method, "path": r.URL.Path}))
}
