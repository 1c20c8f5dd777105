package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
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
		{"/", "/"},
		{"/api/v1/vehicles", "/api/v1/vehicles"},
		{"/api/v1/motors", "/api/v1/motors"},

		// Parameterized environment routes collapse to one label.
		{"/api/v1/environment/2025-06-01", "/api/v1/environment/{date}"},
		{"/api/v1/environment/tomorrow", "/api/v1/environment/{date}"},
		{"/api/v1/vehicles/booster", "/api/v1/vehicles/{name}"},

		// Unknown/bot paths collapse to "other".
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v1/environment/2025-06-01/extra", "other"},
		{"/api/v2/something", "other"},
		{"/api/v1/vehicles/booster/motors", "other"},
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

// TestMetricsCardinality verifies that 100 distinct dates produce exactly
// 1 distinct path label, not 100.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		label := normalizeRoute("/api/v1/environment/" + day.AddDate(0, 0, i).Format(time.DateOnly))
		seen[label] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for parameterized paths, got %d: %v", len(seen), seen)
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", http.MethodGet, "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", http.MethodGet, "418"))

	if after-before != 1 {
		t.Errorf("request counter delta = %v, want 1", after-before)
	}
}

func TestRecordFetchCountsFailures(t *testing.T) {
	before := testutil.ToFloat64(forecastFailures)
	RecordFetch(time.Second, nil)
	RecordFetch(time.Second, errors.New("timeout"))
	if got := testutil.ToFloat64(forecastFailures) - before; got != 1 {
		t.Errorf("failure counter delta = %v, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	RecordRun(3, 2*time.Second)
	path := filepath.Join(t.TempDir(), "rocketsim.prom")

	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), "rocketsim_run_errors 3") {
		t.Errorf("textfile missing run error gauge:\n%s", data)
	}
}
