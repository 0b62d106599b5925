package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `zamzam_http_requests_total{code="418",method="GET",route="/test"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "zamzam_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestReportDegradedCounter(t *testing.T) {
	metrics := NewMetrics()
	metrics.ReportDegraded("daily sales")
	metrics.ReportDegraded("daily sales")

	body := scrape(t, metrics)
	if !strings.Contains(body, `zamzam_reports_degraded_total{report="daily sales"} 2`) {
		t.Fatalf("expected degraded counter, got: %s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected runtime collectors, got: %s", body)
	}

	var nilMetrics *Metrics
	nilMetrics.ReportDegraded("ignored")
}

func TestStoreMetricsTrackCommit(t *testing.T) {
	metrics := NewMetrics()
	store := NewStoreMetrics(metrics.Registerer())

	if err := store.TrackCommit().End(4096, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boom := errors.New("disk full")
	if err := store.TrackCommit().End(0, boom); !errors.Is(err, boom) {
		t.Fatalf("expected error passthrough, got %v", err)
	}
	store.ImageCorrupt()

	body := scrape(t, metrics)
	for _, want := range []string{
		`zamzam_store_commits_total{status="success"} 1`,
		`zamzam_store_commits_total{status="failure"} 1`,
		`zamzam_store_image_bytes 4096`,
		`zamzam_store_image_corrupt_total 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics, got: %s", want, body)
		}
	}
}

func TestNilStoreMetricsAreNoops(t *testing.T) {
	var store *StoreMetrics
	store.ImageCorrupt()
	if err := store.TrackCommit().End(1, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
