// Package api exposes the computation engine over HTTP: positions,
// houses, event searches, stored natal charts, cache statistics and the
// SSE position stream.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/astro/skycalc/internal/auth"
	"github.com/astro/skycalc/internal/health"
	"github.com/astro/skycalc/internal/httputil"
	"github.com/astro/skycalc/internal/metrics"
	"github.com/astro/skycalc/internal/stream"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server over the given handlers.
// streamH may be nil when streaming is disabled.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, trustProxy bool, h *Handlers, streamH *stream.Handler) *Server {
	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(h.ready))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/position", h.handlePosition)
	mux.HandleFunc("GET /api/v1/houses", h.handleHouses)
	mux.HandleFunc("GET /api/v1/risetrans", h.handleRiseTrans)
	mux.HandleFunc("GET /api/v1/pheno", h.handlePheno)
	mux.HandleFunc("GET /api/v1/eclipse", h.handleEclipse)

	mux.HandleFunc("POST /api/v1/natal-chart", h.handleChartSave)
	mux.HandleFunc("GET /api/v1/natal-chart", h.handleChartList)
	mux.HandleFunc("GET /api/v1/natal-chart/{id}", h.handleChartGet)
	mux.HandleFunc("DELETE /api/v1/natal-chart/{id}", h.handleChartDelete)

	mux.HandleFunc("GET /api/v1/cache/stats", h.handleCacheStats)
	if streamH != nil {
		mux.HandleFunc("GET /api/v1/stream/positions", streamH.HandlePositions)
	}

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger, trustProxy)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
