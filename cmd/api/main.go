// Package main is the entry point for the AirAware API server.
//
// It loads the configuration, wires the upstream clients, the response
// cache and the rate limiter, mounts the handlers on the core server and
// serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"airaware/internal/airquality"
	"airaware/internal/api/handlers"
	"airaware/internal/cache"
	"airaware/internal/config"
	"airaware/internal/core"
	"airaware/internal/external"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("airaware API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	srv, err := buildServer(cfg, logger)
	if err != nil {
		return err
	}
	return runHTTPServer(srv, cfg, logger)
}

// buildServer wires every dependency and mounts the routes. It performs no
// network I/O, so tests can call it with a test configuration.
func buildServer(cfg *config.Config, logger *slog.Logger) (*core.Server, error) {
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}

	var store cache.Cache
	if rc := cache.OpenRedis(cache.RedisOptions{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword.Unmask(),
		DB:       cfg.Cache.RedisDB,
	}); rc != nil {
		logger.Info("using redis cache", "addr", cfg.Cache.RedisAddr)
		store = rc
		srv.RateLimitStore = core.NewRedisRateLimitStore(rc.Client())
		srv.HealthProbes = append(srv.HealthProbes, core.ProbeFunc("redis", rc.Ping))
		srv.Closers = append(srv.Closers, rc)
	} else {
		logger.Info("using in-process cache")
		store = cache.NewMemoryCache(nil)
		srv.RateLimitStore = core.NewMemoryRateLimitStore(nil)
	}
	store = cache.NewInstrumented(store, srv.Metrics.CacheLookups)

	httpClient := &http.Client{Timeout: cfg.Upstream.Timeout}
	up := cfg.Upstream
	svc := airquality.NewService(airquality.Deps{
		AirQuality: external.NewOpenMeteoClient(httpClient, up.OpenMeteoURL),
		Weather:    external.NewOpenWeatherClient(httpClient, up.OpenWeatherURL, up.OpenWeatherKey),
		Fires:      external.NewFIRMSClient(httpClient, up.FIRMSURL, up.FIRMSMapKey, up.FIRMSSource),
		Geocoder:   external.NewNominatimClient(httpClient, up.NominatimURL),
		Cache:      store,
		TTL:        cfg.Cache.TTL,
		Logger:     logger,
	})
	if !up.OpenWeatherKey.IsSet() {
		logger.Warn("OPENWEATHER_API_KEY not set; weather fields will be null")
	}
	if !up.FIRMSMapKey.IsSet() {
		logger.Warn("FIRMS_MAP_KEY not set; the fire layer is disabled")
	}

	dashboard := handlers.NewDashboardHandler(svc, srv.Validator, logger)
	fires := handlers.NewFireHandler(svc, srv.Validator, logger)
	cities := handlers.NewCityHandler(svc, srv.Validator, logger)
	srv.APIRouteRegistrars = append(srv.APIRouteRegistrars,
		dashboard.RegisterRoutes,
		fires.RegisterRoutes,
		cities.RegisterRoutes,
	)

	srv.MountRoutes()
	return srv, nil
}

// runHTTPServer serves until a shutdown signal or a listener error.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a JSON slog.Logger at level. Unknown levels log at info.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
