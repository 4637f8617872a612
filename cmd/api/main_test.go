package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airaware/internal/config"
	"airaware/internal/core"
)

// buildTestServer wires the production graph with upstreams pointed at an
// unreachable address and no Redis.
func buildTestServer(t *testing.T) *core.Server {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "local")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("OPENWEATHER_API_KEY", "")
	t.Setenv("FIRMS_MAP_KEY", "")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	srv, err := buildServer(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := buildTestServer(t)

	rec := get(t, srv.Handler(), "/health")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestRoutesMounted(t *testing.T) {
	srv := buildTestServer(t)
	h := srv.Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/metrics").Code)

	// Validation runs before any upstream call.
	for _, path := range []string{"/api/airquality", "/api/pollutants", "/api/heatmap", "/api/fires"} {
		rec := get(t, h, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"), path)
	}

	rec := get(t, h, "/api/cities?q=ab")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"query":"ab","results":[]}`, rec.Body.String())
}

func TestFiresDisabledWithoutKey(t *testing.T) {
	srv := buildTestServer(t)
	rec := get(t, srv.Handler(), "/api/fires?bbox=-119,33.5,-117.5,34.5")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewLogger(t *testing.T) {
	for level, wantDebug := range map[string]bool{"debug": true, "info": false, "warn": false, "error": false, "bogus": false} {
		var buf bytes.Buffer
		logger := newLogger(&buf, level)
		logger.Debug("probe")
		assert.Equal(t, wantDebug, buf.Len() > 0, level)
	}
}
