package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/astro/skycalc/internal/cache"
	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/position"
	"github.com/astro/skycalc/internal/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

func testCache() (*cache.KeyframeCache, *state.Context) {
	st := state.New()
	pool := position.NewPool(2, testLogger())
	c := cache.NewKeyframeCache(cache.Config{
		Step:        5 * time.Second,
		Horizon:     30 * time.Second,
		GracePeriod: 5 * time.Second,
		Buffer:      10 * time.Second,
	}, st, pool, testLogger())
	return c, st
}

func testConfig() Config {
	return Config{
		MaxConcurrentPerIP: 10,
		KeepaliveInterval:  30 * time.Second,
	}
}

// TestBuildBatchMessage verifies the position batch payload structure.
func TestBuildBatchMessage(t *testing.T) {
	kf := &cache.Keyframe{
		Timestamp: time.Date(2026, 2, 6, 4, 0, 0, 0, time.UTC),
		JDUT:      2461077.6666666665,
		Bodies: []cache.BodyPosition{
			{Body: ephem.Sun, Lon: 317.5, Lat: 0.0001, Dist: 0.986, SpeedLon: 1.01},
			{Body: ephem.Moon, Lon: 123.4, Lat: -4.2, Dist: 0.00257, SpeedLon: 13.2},
		},
	}

	msg := buildBatchMessage(kf, nil)

	if msg.Type != "position_batch" {
		t.Errorf("type = %q, want %q", msg.Type, "position_batch")
	}
	if msg.T != "2026-02-06T04:00:00Z" {
		t.Errorf("t = %q, want %q", msg.T, "2026-02-06T04:00:00Z")
	}
	if len(msg.Bodies) != 2 {
		t.Fatalf("body count = %d, want 2", len(msg.Bodies))
	}
	if msg.Bodies[0].Name != "Sun" {
		t.Errorf("bodies[0].name = %q, want Sun", msg.Bodies[0].Name)
	}
	if msg.Bodies[0].Lon != 317.5 {
		t.Errorf("bodies[0].lon = %v, want 317.5", msg.Bodies[0].Lon)
	}
	if msg.Bodies[1].Tr != nil {
		t.Error("expected no trail without trail keyframes")
	}
}

// TestBuildBatchMessageTrail verifies trail longitudes come through
// oldest-first.
func TestBuildBatchMessageTrail(t *testing.T) {
	mk := func(lon float64) *cache.Keyframe {
		return &cache.Keyframe{
			Timestamp: time.Date(2026, 2, 6, 4, 0, 0, 0, time.UTC),
			Bodies:    []cache.BodyPosition{{Body: ephem.Moon, Lon: lon}},
		}
	}

	msg := buildBatchMessage(mk(123.4), []*cache.Keyframe{mk(123.0), mk(123.2), mk(123.4)})
	if len(msg.Bodies) != 1 {
		t.Fatalf("body count = %d, want 1", len(msg.Bodies))
	}
	if len(msg.Bodies[0].Tr) != 3 {
		t.Fatalf("trail length = %d, want 3", len(msg.Bodies[0].Tr))
	}
	if msg.Bodies[0].Tr[0] != 123.0 || msg.Bodies[0].Tr[2] != 123.4 {
		t.Errorf("trail not oldest-first: %v", msg.Bodies[0].Tr)
	}
}

// TestBatchMessageJSON verifies the JSON serialization format.
func TestBatchMessageJSON(t *testing.T) {
	msg := positionBatchMessage{
		Type: "position_batch",
		T:    "2026-02-06T04:00:00Z",
		JD:   2461077.67,
		Bodies: []bodyPayload{
			{ID: 1, Name: "Moon", Lon: 123.4, Lat: -4.2, Dist: 0.00257, Slon: 13.2},
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatal(err)
	}

	if parsed["type"] != "position_batch" {
		t.Errorf("type = %v, want position_batch", parsed["type"])
	}
	if parsed["t"] != "2026-02-06T04:00:00Z" {
		t.Errorf("t = %v, want 2026-02-06T04:00:00Z", parsed["t"])
	}

	bodies, ok := parsed["bodies"].([]any)
	if !ok || len(bodies) != 1 {
		t.Fatalf("bodies = %v, want 1-element array", parsed["bodies"])
	}

	body := bodies[0].(map[string]any)
	if body["name"] != "Moon" {
		t.Errorf("bodies[0].name = %v, want Moon", body["name"])
	}
	if _, present := body["tr"]; present {
		t.Error("empty trail should be omitted from JSON")
	}
}

// TestMetadataMessage verifies the metadata payload reflects the engine
// configuration.
func TestMetadataMessage(t *testing.T) {
	kfCache, st := testCache()
	h := NewHandler(kfCache, st, testConfig(), testLogger())

	meta := h.metadata()
	if meta.Type != "metadata" {
		t.Errorf("type = %q, want metadata", meta.Type)
	}
	if meta.Zodiac != "tropical" {
		t.Errorf("zodiac = %q, want tropical", meta.Zodiac)
	}
	// Delta-T in the current era is roughly 70 seconds.
	if meta.DeltaT < 50 || meta.DeltaT > 120 {
		t.Errorf("delta_t_seconds = %v, want a modern-era value", meta.DeltaT)
	}

	st.SetSidMode(state.SidLahiri, 0, 0)
	if got := h.metadata().Zodiac; got != "sidereal" {
		t.Errorf("zodiac after SetSidMode = %q, want sidereal", got)
	}
}

// TestSSEMessageFormat verifies the SSE wire format: "data: {json}\n\n".
func TestSSEMessageFormat(t *testing.T) {
	kfCache, st := testCache()
	handler := NewHandler(kfCache, st, Config{
		MaxConcurrentPerIP: 10,
		KeepaliveInterval:  5 * time.Second,
	}, testLogger())

	// Use httptest to call the handler.
	req := httptest.NewRequest("GET", "/api/v1/stream/positions?step=1", nil)
	req.RemoteAddr = "127.0.0.1:12345"

	// Cancel request after receiving first message.
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	handler.HandlePositions(w, req)

	resp := w.Result()

	if resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get("Cache-Control") != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", resp.Header.Get("Cache-Control"))
	}

	// Parse the SSE body for the metadata message.
	body := w.Body.String()
	scanner := bufio.NewScanner(strings.NewReader(body))
	var foundMetadata bool

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			jsonStr := strings.TrimPrefix(line, "data: ")
			var msg map[string]any
			if err := json.Unmarshal([]byte(jsonStr), &msg); err != nil {
				t.Errorf("invalid JSON in SSE data line: %v", err)
				continue
			}
			if msg["type"] == "metadata" {
				foundMetadata = true
				if _, ok := msg["zodiac"]; !ok {
					t.Error("metadata missing zodiac")
				}
				if _, ok := msg["delta_t_seconds"]; !ok {
					t.Error("metadata missing delta_t_seconds")
				}
			}
		}
	}

	if !foundMetadata {
		t.Error("did not receive metadata message")
	}

	// Verify SSE format: lines should be "data: ..." or ":" (keepalive) or empty.
	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data: ") && !strings.HasPrefix(line, "retry: ") && line != ":" {
			// Allow empty lines between events.
			if strings.TrimSpace(line) != "" {
				t.Errorf("unexpected SSE line: %q", line)
			}
		}
	}
}

// TestRateLimiting verifies per-IP concurrent stream limits.
func TestRateLimiting(t *testing.T) {
	limiter := newStreamLimiter(3, 0)

	// Acquire up to the limit.
	for i := 0; i < 3; i++ {
		if !limiter.acquire("10.0.0.1") {
			t.Fatalf("acquire %d should succeed", i+1)
		}
	}

	// 4th should fail.
	if limiter.acquire("10.0.0.1") {
		t.Error("acquire beyond limit should fail")
	}

	// Different IP should still work.
	if !limiter.acquire("10.0.0.2") {
		t.Error("different IP should not be rate limited")
	}

	// Release one and try again.
	limiter.release("10.0.0.1")
	if !limiter.acquire("10.0.0.1") {
		t.Error("acquire after release should succeed")
	}

	// Count checks.
	if c := limiter.count("10.0.0.1"); c != 3 {
		t.Errorf("count = %d, want 3", c)
	}
	if c := limiter.count("10.0.0.2"); c != 1 {
		t.Errorf("count = %d, want 1", c)
	}
}

// TestRateLimitGlobalCap verifies the global connection cap.
func TestRateLimitGlobalCap(t *testing.T) {
	limiter := newStreamLimiter(10, 2)

	if !limiter.acquire("10.0.0.1") || !limiter.acquire("10.0.0.2") {
		t.Fatal("first two acquires should succeed")
	}
	if limiter.acquire("10.0.0.3") {
		t.Error("acquire beyond global cap should fail")
	}
}

// TestRateLimitingConcurrent verifies rate limiter thread safety.
func TestRateLimitingConcurrent(t *testing.T) {
	limiter := newStreamLimiter(100, 0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.acquire("10.0.0.1") {
				defer limiter.release("10.0.0.1")
				time.Sleep(10 * time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if c := limiter.count("10.0.0.1"); c != 0 {
		t.Errorf("count after all released = %d, want 0", c)
	}
}

// TestRateLimitHTTPResponse verifies 429 response when limit exceeded.
func TestRateLimitHTTPResponse(t *testing.T) {
	kfCache, st := testCache()
	handler := NewHandler(kfCache, st, Config{
		MaxConcurrentPerIP: 1,
		KeepaliveInterval:  30 * time.Second,
	}, testLogger())

	// Hold the first connection open.
	ready := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest("GET", "/api/v1/stream/positions", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		ctx, cancel := context.WithCancel(req.Context())
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		go func() {
			// Signal ready after short delay to allow acquire.
			time.Sleep(50 * time.Millisecond)
			close(ready)
			// Hold connection for a bit.
			time.Sleep(200 * time.Millisecond)
			cancel()
		}()

		handler.HandlePositions(w, req)
	}()

	// Wait for first connection to be established.
	<-ready

	// Second connection from same IP should get 429.
	req := httptest.NewRequest("GET", "/api/v1/stream/positions", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	w := httptest.NewRecorder()
	handler.HandlePositions(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	<-done
}

// TestInvalidQueryParams verifies error responses for bad step/trail values.
func TestInvalidQueryParams(t *testing.T) {
	kfCache, st := testCache()
	handler := NewHandler(kfCache, st, testConfig(), testLogger())

	tests := []struct {
		name  string
		query string
	}{
		{"bad step", "?step=0"},
		{"step too large", "?step=100"},
		{"step non-numeric", "?step=abc"},
		{"negative trail", "?trail=-1"},
		{"trail too large", "?trail=9999"},
		{"trail non-numeric", "?trail=xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/stream/positions"+tt.query, nil)
			req.RemoteAddr = "127.0.0.1:12345"
			w := httptest.NewRecorder()
			handler.HandlePositions(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

// TestKeepaliveFormat verifies keep-alive is an SSE comment.
func TestKeepaliveFormat(t *testing.T) {
	// The keep-alive message should be ":\n\n" - a comment line followed by blank line.
	expected := ":\n\n"
	if len(expected) != 3 {
		t.Errorf("keepalive length = %d, want 3", len(expected))
	}
	if expected[0] != ':' {
		t.Error("keepalive should start with ':'")
	}
}
