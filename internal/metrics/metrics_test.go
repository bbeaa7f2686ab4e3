package metrics

import (
	"fmt"
	"testing"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/api/v1/position", "/api/v1/position"},
		{"/api/v1/houses", "/api/v1/houses"},
		{"/api/v1/risetrans", "/api/v1/risetrans"},
		{"/api/v1/pheno", "/api/v1/pheno"},
		{"/api/v1/eclipse", "/api/v1/eclipse"},
		{"/api/v1/natal-chart", "/api/v1/natal-chart"},
		{"/api/v1/cache/stats", "/api/v1/cache/stats"},
		{"/api/v1/stream/positions", "/api/v1/stream/positions"},

		// Chart lookups by id collapse to one label.
		{"/api/v1/natal-chart/01J9FZK3T4", "/api/v1/natal-chart/{id}"},
		{"/api/v1/natal-chart/abc", "/api/v1/natal-chart/{id}"},

		// Unknown/bot paths collapse to "other".
		{"/", "other"},
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that 100 unique chart ids produce
// exactly 1 distinct path label, not 100.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		label := normalizeRoute(fmt.Sprintf("/api/v1/natal-chart/%04d", i))
		seen[label] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for parameterized paths, got %d: %v", len(seen), seen)
	}
}
