package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"voxscribe/internal/billing"
	"voxscribe/internal/http/handlers"
	"voxscribe/internal/identity"
	"voxscribe/internal/metrics"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "uploads", "u1"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "uploads", "u1", "clip.mp3"), []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	app := &handlers.App{
		Billing: billing.NewService(billing.Options{Logger: zerolog.Nop()}),
		Metrics: m,
		Logger:  zerolog.Nop(),
	}
	return NewRouter(Options{
		App:             app,
		Sessions:        identity.NewTokenIssuer("secret", time.Hour, time.Minute),
		Metrics:         m,
		Gatherer:        reg,
		Logger:          zerolog.Nop(),
		AllowedOrigins:  []string{"*"},
		RateLimitPerMin: 100,
		StaticDir:       dir,
	})
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(t)
	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/v1/healthz", http.StatusOK},
		{http.MethodGet, "/v1/openapi.json", http.StatusOK},
		{http.MethodGet, "/v1/billing/packages", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/pricing", http.StatusOK},
		{http.MethodGet, "/terms", http.StatusOK},
		{http.MethodGet, "/v1/me", http.StatusUnauthorized},
		{http.MethodGet, "/v1/me/events?access_token=bogus", http.StatusUnauthorized},
		{http.MethodPost, "/v1/transcriptions", http.StatusUnauthorized},
		{http.MethodPost, "/v1/billing/credit", http.StatusUnauthorized},
		{http.MethodGet, "/static/uploads/u1/clip.mp3", http.StatusOK},
		{http.MethodGet, "/static/uploads/u1/", http.StatusNotFound},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Fatal("missing request id")
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `voxscribe_http_requests_total{method="GET",route="/v1/healthz",status_code="200"} 1`) {
		t.Fatalf("request counter missing:\n%s", rec.Body.String())
	}
}
