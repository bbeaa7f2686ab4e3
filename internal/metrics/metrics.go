package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skycalc_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skycalc_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	calcTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skycalc_calc_total",
			Help: "Body position calculations by backend and status.",
		},
		[]string{"backend", "status"},
	)

	searchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skycalc_search_total",
			Help: "Event searches by kind and final state.",
		},
		[]string{"kind", "state"},
	)

	chartsSavedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skycalc_charts_saved_total",
			Help: "Natal charts persisted to the chart store.",
		},
	)

	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skycalc_cache_hits_total",
		Help: "Keyframe cache hits.",
	})
	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skycalc_cache_misses_total",
		Help: "Keyframe cache misses.",
	})
	cacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skycalc_cache_evictions_total",
		Help: "Keyframe cache entries evicted.",
	})
	cacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skycalc_cache_entries",
		Help: "Keyframe cache entry count.",
	})
	cacheSizeBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skycalc_cache_size_bytes",
		Help: "Estimated keyframe cache memory footprint.",
	})
	cacheRegenErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skycalc_cache_regeneration_errors_total",
		Help: "Keyframe generation failures.",
	})
	cacheRegenDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skycalc_cache_regeneration_duration_seconds",
		Help:    "Keyframe generation duration in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	cacheGracePeriod = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skycalc_cache_grace_period_active",
		Help: "1 while the cache rebuilds after a configuration change.",
	})

	streamConnections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skycalc_stream_connections_total",
			Help: "Stream connect/disconnect events.",
		},
		[]string{"event"},
	)
	streamsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skycalc_streams_active",
		Help: "Currently connected SSE streams.",
	})
	streamMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skycalc_stream_messages_total",
		Help: "SSE data messages sent.",
	})
	streamBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skycalc_stream_bytes_total",
		Help: "SSE bytes sent, keepalives included.",
	})
	streamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skycalc_stream_errors_total",
			Help: "Stream errors by cause.",
		},
		[]string{"cause"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal, httpDurationSeconds,
		calcTotal, searchTotal, chartsSavedTotal,
		cacheHits, cacheMisses, cacheEvictions, cacheEntries,
		cacheSizeBytes, cacheRegenErrors, cacheRegenDuration, cacheGracePeriod,
		streamConnections, streamsActive, streamMessages, streamBytes, streamErrors,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncCalc records one body position calculation.
func IncCalc(backend, status string) { calcTotal.WithLabelValues(backend, status).Inc() }

// IncSearch records one finished event search.
func IncSearch(kind, state string) { searchTotal.WithLabelValues(kind, state).Inc() }

// IncChartsSaved records one persisted natal chart.
func IncChartsSaved() { chartsSavedTotal.Inc() }

func IncCacheHits()             { cacheHits.Inc() }
func IncCacheMisses()           { cacheMisses.Inc() }
func AddCacheEvictions(n int)   { cacheEvictions.Add(float64(n)) }
func SetCacheEntries(n int)     { cacheEntries.Set(float64(n)) }
func SetCacheSizeBytes(n int64) { cacheSizeBytes.Set(float64(n)) }
func IncCacheRegenerationErrors() {
	cacheRegenErrors.Inc()
}

// ObserveCacheRegenerationDuration records how long a keyframe (or a full
// rebuild) took to generate.
func ObserveCacheRegenerationDuration(d time.Duration) {
	cacheRegenDuration.Observe(d.Seconds())
}

// SetCacheGracePeriodActive flags the window during which the cache is
// rebuilt after a configuration change.
func SetCacheGracePeriodActive(active bool) {
	if active {
		cacheGracePeriod.Set(1)
	} else {
		cacheGracePeriod.Set(0)
	}
}

func IncStreamConnections(event string) { streamConnections.WithLabelValues(event).Inc() }
func IncStreamsActive()                 { streamsActive.Inc() }
func DecStreamsActive()                 { streamsActive.Dec() }
func IncStreamMessages()                { streamMessages.Inc() }
func AddStreamBytes(n int64)            { streamBytes.Add(float64(n)) }
func IncStreamErrors(cause string)      { streamErrors.WithLabelValues(cause).Inc() }

// knownRoutes are the exact paths the server registers. Everything else
// collapses to a single label so scanners cannot blow up the metric
// cardinality.
var knownRoutes = map[string]bool{
	"/healthz":                  true,
	"/readyz":                   true,
	"/metrics":                  true,
	"/api/v1/position":          true,
	"/api/v1/houses":            true,
	"/api/v1/risetrans":         true,
	"/api/v1/pheno":             true,
	"/api/v1/eclipse":           true,
	"/api/v1/natal-chart":       true,
	"/api/v1/cache/stats":       true,
	"/api/v1/stream/positions":  true,
}

// normalizeRoute maps a request path to a bounded metric label.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/api/v1/natal-chart/") {
		return "/api/v1/natal-chart/{id}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)

		route := normalizeRoute(r.URL.Path)
		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
