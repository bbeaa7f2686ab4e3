// Command skycalc runs the astronomical computation service: an HTTP API
// for body positions, house cusps, rise/set searches, phenomena and
// eclipses, with an optional keyframe cache feeding an SSE position
// stream and a SQLite-backed natal chart store.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/astro/skycalc/internal/api"
	"github.com/astro/skycalc/internal/auth"
	"github.com/astro/skycalc/internal/cache"
	"github.com/astro/skycalc/internal/chartdb"
	"github.com/astro/skycalc/internal/config"
	"github.com/astro/skycalc/internal/position"
	"github.com/astro/skycalc/internal/search"
	"github.com/astro/skycalc/internal/state"
	"github.com/astro/skycalc/internal/stream"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	st := state.New()
	if cfg.Engine.EphePath != "" {
		st.SetEphePath(cfg.Engine.EphePath)
	}
	if cfg.Engine.JPLFile != "" {
		st.SetJPLFile(cfg.Engine.JPLFile)
	}

	pool := position.NewPool(cfg.Engine.Workers, logger)
	engine := search.New(st, logger)

	charts, err := chartdb.Open(cfg.DB.Path, logger)
	if err != nil {
		logger.Error("open chart store", "path", cfg.DB.Path, "error", err)
		os.Exit(1)
	}
	defer charts.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var kfCache *cache.KeyframeCache
	var streamHandler *stream.Handler
	if cfg.Cache.Enabled {
		kfCache = cache.NewKeyframeCache(cache.Config{
			Step:        cfg.Cache.Step(),
			Horizon:     cfg.Cache.Horizon(),
			GracePeriod: cfg.Cache.Grace(),
			Buffer:      cfg.Cache.Buffer(),
		}, st, pool, logger)
		go kfCache.Start(ctx)

		streamHandler = stream.NewHandler(kfCache, st, stream.Config{
			MaxConcurrentPerIP: cfg.Stream.MaxConcurrentPerIP,
			MaxConcurrent:      cfg.Stream.MaxConcurrent,
			KeepaliveInterval:  cfg.Stream.Keepalive(),
			TrustProxy:         cfg.Server.TrustProxy,
		}, logger)
	}

	h := &api.Handlers{
		State:  st,
		Engine: engine,
		Charts: charts,
		Cache:  kfCache,
		Logger: logger,
	}

	authCfg := auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token}
	srv := api.NewServer(cfg.Server.Addr, logger, authCfg, cfg.Server.TrustProxy, h, streamHandler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr,
			"auth", cfg.Auth.Enabled, "cache", cfg.Cache.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func defaultConfigPath() string {
	if p := os.Getenv("SKYCALC_CONFIG"); p != "" {
		return p
	}
	return "skycalc.toml"
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
