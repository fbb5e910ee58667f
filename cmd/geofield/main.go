package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/geomag/geofield/internal/api"
	"github.com/geomag/geofield/internal/auth"
	"github.com/geomag/geofield/internal/cache"
	"github.com/geomag/geofield/internal/config"
	"github.com/geomag/geofield/internal/grid"
	"github.com/geomag/geofield/internal/metrics"
	"github.com/geomag/geofield/internal/model"
)

func main() {
	// A missing .env file is not an error; real environments set
	// variables directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load(os.Getenv("GEOFIELD_CONFIG"))
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	applyEnvOverrides(cfg, logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	day, month, year, err := resolveDate(cfg.Model.Date)
	if err != nil {
		logger.Error("invalid model date", "date", cfg.Model.Date, "error", err)
		os.Exit(1)
	}

	store := model.NewStore()
	fileCache := model.NewCache(cfg.Model.CacheDir, cfg.Model.MaxFiles)

	path, source, err := acquireModel(cfg, fileCache, logger)
	if err != nil {
		logger.Error("no coefficient file available", "error", err)
		os.Exit(1)
	}

	snap, err := model.Load(path, day, month, year)
	if err != nil {
		metrics.IncSnapshotBuildError(buildErrorKind(err))
		logger.Error("failed to build snapshot", "path", path, "error", err)
		os.Exit(1)
	}
	metrics.IncSnapshotsBuilt()

	minKm, maxKm := snap.AltitudeRangeKm()
	store.Set(&model.Current{
		Snapshot: snap,
		Source:   source,
		Date:     fmt.Sprintf("%04d-%02d-%02d", year, month, day),
		LoadedAt: time.Now(),
	})
	logger.Info("snapshot ready",
		"source", source,
		"order", snap.Order(),
		"altitude_min_m", minKm*1e3,
		"altitude_max_m", maxKm*1e3,
		"date", fmt.Sprintf("%04d-%02d-%02d", year, month, day),
	)

	snapCache := cache.New(path, cfg.Cache.MaxEntries, logger)
	gridPool := grid.NewPool(cfg.Grid.Workers, logger)

	authCfg := auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token}
	srv := api.NewServer(cfg.Server.Addr, logger, authCfg, api.Deps{
		Store:      store,
		Cache:      snapCache,
		GridPool:   gridPool,
		MaxPoints:  cfg.Grid.MaxPoints,
		MaxSamples: cfg.Track.MaxSamples,
		TrustProxy: cfg.Server.TrustProxy,
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background goroutine to update the snapshot age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				age := store.AgeSeconds()
				if age >= 0 {
					metrics.SetSnapshotAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr, "auth_enabled", authCfg.Enabled, "workers", cfg.Grid.Workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// acquireModel locates a coefficient file: an explicitly configured path
// wins, then a fresh fetch from the source URL, then the newest cached
// fetch from a previous run.
func acquireModel(cfg *config.Config, fileCache *model.Cache, logger *slog.Logger) (path, source string, err error) {
	if cfg.Model.Path != "" {
		if _, err := os.Stat(cfg.Model.Path); err != nil {
			return "", "", fmt.Errorf("configured model path: %w", err)
		}
		return cfg.Model.Path, cfg.Model.Path, nil
	}

	if cfg.Model.SourceURL != "" {
		fetcher := model.NewFetcher(cfg.Model.SourceURL)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		data, ferr := fetcher.Fetch(ctx)
		cancel()
		if ferr == nil {
			cached, werr := fileCache.Write(data, time.Now())
			if werr != nil {
				return "", "", fmt.Errorf("caching fetched model: %w", werr)
			}
			logger.Info("fetched model file", "url", cfg.Model.SourceURL, "bytes", len(data))
			return cached, cfg.Model.SourceURL, nil
		}
		logger.Warn("model fetch failed, trying cache", "url", cfg.Model.SourceURL, "error", ferr)
	}

	cached, ts, cerr := fileCache.LoadLatest()
	if cerr != nil {
		return "", "", fmt.Errorf("no model path configured, no fetch source reachable and no cached file: %w", cerr)
	}
	logger.Info("using cached model file", "path", cached, "cached_at", ts.Format(time.RFC3339))
	return cached, "cache", nil
}

// resolveDate parses a YYYY-MM-DD configuration value, defaulting to the
// current UTC date when empty.
func resolveDate(s string) (day, month, year int, err error) {
	if s == "" {
		now := time.Now().UTC()
		return now.Day(), int(now.Month()), now.Year(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, 0, 0, err
	}
	return t.Day(), int(t.Month()), t.Year(), nil
}

// buildErrorKind labels snapshot build failures for the error counter.
func buildErrorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrFormat):
		return "format"
	case errors.Is(err, model.ErrMissingData):
		return "missing_data"
	case errors.Is(err, model.ErrDomain):
		return "domain"
	case errors.Is(err, model.ErrPath):
		return "path"
	default:
		return "other"
	}
}

// applyEnvOverrides layers GEOFIELD_* environment variables over the
// file configuration.
func applyEnvOverrides(cfg *config.Config, logger *slog.Logger) {
	if v := os.Getenv("GEOFIELD_HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("GEOFIELD_TRUST_PROXY"); v != "" {
		cfg.Server.TrustProxy = v == "1" || v == "true"
	}
	if v := os.Getenv("GEOFIELD_MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}
	if v := os.Getenv("GEOFIELD_MODEL_URL"); v != "" {
		cfg.Model.SourceURL = v
	}
	if v := os.Getenv("GEOFIELD_MODEL_CACHE_DIR"); v != "" {
		cfg.Model.CacheDir = v
	}
	if v := os.Getenv("GEOFIELD_MODEL_DATE"); v != "" {
		cfg.Model.Date = v
	}
	if v := os.Getenv("GEOFIELD_GRID_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("ignoring invalid GEOFIELD_GRID_WORKERS", "value", v)
		} else {
			cfg.Grid.Workers = n
		}
	}
	if v := os.Getenv("GEOFIELD_GRID_MAX_POINTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("ignoring invalid GEOFIELD_GRID_MAX_POINTS", "value", v)
		} else {
			cfg.Grid.MaxPoints = n
		}
	}
	if v := os.Getenv("GEOFIELD_TRACK_MAX_SAMPLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("ignoring invalid GEOFIELD_TRACK_MAX_SAMPLES", "value", v)
		} else {
			cfg.Track.MaxSamples = n
		}
	}
	if v := os.Getenv("GEOFIELD_AUTH_TOKEN"); v != "" {
		cfg.Auth.Enabled = true
		cfg.Auth.Token = v
	}
}
