// Package stream implements Server-Sent Events (SSE) streaming for planetary
// position batches. Clients connect via GET /api/v1/stream/positions and
// receive a continuous stream of ecliptic positions from the keyframe cache.
//
// SSE message format:
//
//	data: {"type":"position_batch","t":"2026-02-06T04:00:00Z","jd":2461078.666,"bodies":[...]}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","backend":"analytic","delta_t_seconds":72.1}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to prevent
// timeout. Reconnecting clients receive a fresh metadata message on each
// connection.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/astro/skycalc/internal/cache"
	"github.com/astro/skycalc/internal/httputil"
	"github.com/astro/skycalc/internal/metrics"
	"github.com/astro/skycalc/internal/state"
	"github.com/astro/skycalc/internal/timescale"
)

// Config holds streaming configuration.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	MaxConcurrent      int           // Global concurrent stream cap (default: 1000).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	TrustProxy         bool          // Honor X-Forwarded-For / X-Real-IP.
}

// Handler manages SSE streaming connections.
type Handler struct {
	cache   *cache.KeyframeCache
	st      *state.Context
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(kfCache *cache.KeyframeCache, st *state.Context, config Config, logger *slog.Logger) *Handler {
	return &Handler{
		cache:   kfCache,
		st:      st,
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP, config.MaxConcurrent),
		logger:  logger,
	}
}

// HandlePositions serves the SSE position stream.
// GET /api/v1/stream/positions?step=5&trail=20
func (h *Handler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters.
	step := 5
	if v := r.URL.Query().Get("step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 60 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid step parameter, must be 1-60"})
			return
		}
		step = n
	}

	trail := 0
	if v := r.URL.Query().Get("trail"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 120 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid trail parameter, must be 0-120"})
			return
		}
		trail = n
	}

	// Rate limiting: enforce concurrent stream limit per IP.
	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}

	// Track connection metrics.
	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"step", step,
		"trail", trail,
	)

	// Cleanup on disconnect: release rate limit slot and update metrics.
	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	// Verify flusher support (required for SSE).
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "streaming not supported"})
		return
	}

	// Set SSE response headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Use ResponseController to manage write deadlines for long-lived SSE.
	// Clear the server's default WriteTimeout for this connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	c := &client{
		w:       w,
		flusher: flusher,
		rc:      rc,
		ip:      ip,
		logger:  h.logger,
	}

	// Send jittered retry interval (3-7s) to prevent thundering-herd
	// reconnection storms when the server restarts.
	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(w, "retry: %d\n\n", retryMs)
	flusher.Flush()

	// Send metadata message (first message on every connection).
	if err := c.sendJSON(h.metadata()); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
		return
	}

	// Stream keyframes at the requested step interval.
	stepDuration := time.Duration(step) * time.Second
	ticker := time.NewTicker(stepDuration)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			return

		case t := <-ticker.C:
			kf := h.cache.Get(t)
			if kf == nil {
				metrics.IncStreamErrors("cache_miss")
				h.logger.Debug("stream cache miss",
					"timestamp", h.cache.RoundToStep(t).UTC().Format(time.RFC3339),
					"remote_ip", ip,
				)
				continue
			}

			var trailKFs []*cache.Keyframe
			if trail > 0 {
				trailKFs = h.cache.GetRecent(t, trail)
			}

			batch := buildBatchMessage(kf, trailKFs)
			data, err := json.Marshal(batch)
			if err != nil {
				metrics.IncStreamErrors("marshal_error")
				h.logger.Warn("stream marshal error", "remote_ip", ip, "error", err)
				continue
			}
			if err := c.sendRaw(data); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}

			// Reset keepalive since we just sent data.
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// metadata describes the engine configuration behind this stream.
func (h *Handler) metadata() metadataMessage {
	snap := h.st.Snapshot()
	jdUT := julianDayNow()
	dt, _ := timescale.DeltaT(jdUT, snap)

	zodiac := "tropical"
	if snap.SiderealSet {
		zodiac = "sidereal"
	}
	return metadataMessage{
		Type:   "metadata",
		Zodiac: zodiac,
		DeltaT: dt,
	}
}

func julianDayNow() float64 {
	t := time.Now().UTC()
	hour := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
	return timescale.JulianDay(t.Year(), int(t.Month()), t.Day(), hour, timescale.Gregorian)
}

// buildBatchMessage formats a keyframe into the SSE batch payload.
// If trailKFs is non-empty, each body includes past longitudes (oldest first).
func buildBatchMessage(kf *cache.Keyframe, trailKFs []*cache.Keyframe) positionBatchMessage {
	// Build index: body -> trail longitudes (oldest first).
	var trailIndex map[int][]float64
	if len(trailKFs) > 0 {
		trailIndex = make(map[int][]float64, len(kf.Bodies))
		for _, tkf := range trailKFs {
			for _, b := range tkf.Bodies {
				trailIndex[int(b.Body)] = append(trailIndex[int(b.Body)], b.Lon)
			}
		}
	}

	bodies := make([]bodyPayload, len(kf.Bodies))
	for i, b := range kf.Bodies {
		bodies[i] = bodyPayload{
			ID:   int(b.Body),
			Name: b.Body.Name(),
			Lon:  b.Lon,
			Lat:  b.Lat,
			Dist: b.Dist,
			Slon: b.SpeedLon,
		}
		if trailIndex != nil {
			if tr, ok := trailIndex[int(b.Body)]; ok {
				bodies[i].Tr = tr
			}
		}
	}
	return positionBatchMessage{
		Type:   "position_batch",
		T:      kf.Timestamp.UTC().Format(time.RFC3339),
		JD:     kf.JDUT,
		Bodies: bodies,
	}
}

// SSE message payload types.

type metadataMessage struct {
	Type   string  `json:"type"`
	Zodiac string  `json:"zodiac"`
	DeltaT float64 `json:"delta_t_seconds"`
}

type positionBatchMessage struct {
	Type   string        `json:"type"`
	T      string        `json:"t"`
	JD     float64       `json:"jd"`
	Bodies []bodyPayload `json:"bodies"`
}

type bodyPayload struct {
	ID   int       `json:"id"`
	Name string    `json:"name"`
	Lon  float64   `json:"lon"`
	Lat  float64   `json:"lat"`
	Dist float64   `json:"dist"`
	Slon float64   `json:"slon"`
	Tr   []float64 `json:"tr,omitempty"`
}
