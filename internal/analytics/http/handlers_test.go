package analytichttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/zamzam-pos/zamzam-pos/internal/analytics"
	"github.com/zamzam-pos/zamzam-pos/internal/inventory"
)

var pkt = time.FixedZone("PKT", 5*60*60)

type stubService struct {
	sales    analytics.SalesAnalytics
	pl       analytics.ProfitLoss
	err      error
	lastYear int
	lastMon  time.Month
	period   analytics.Period
}

func (s *stubService) Sales(ctx context.Context, start, end time.Time) (analytics.SalesAnalytics, error) {
	return s.sales, s.err
}

func (s *stubService) DailySales(ctx context.Context, day time.Time) (analytics.SalesAnalytics, analytics.Window, error) {
	return s.sales, analytics.ResolvePeriod(analytics.PeriodDaily, day, pkt), s.err
}

func (s *stubService) MonthlySales(ctx context.Context, year int, month time.Month) (analytics.SalesAnalytics, analytics.Window, error) {
	s.lastYear, s.lastMon = year, month
	return s.sales, analytics.MonthWindow(year, month, pkt), s.err
}

func (s *stubService) ProfitLoss(ctx context.Context, period analytics.Period, ref time.Time) (analytics.ProfitLoss, error) {
	s.period = period
	if s.err != nil {
		return analytics.ProfitLoss{}, s.err
	}
	report := s.pl
	report.Window = analytics.ResolvePeriod(period, ref, pkt)
	return report, nil
}

type stubInventory struct {
	items   []inventory.Item
	entries []inventory.LogEntry
}

func (s stubInventory) Items(ctx context.Context) ([]inventory.Item, error) {
	return s.items, nil
}

func (s stubInventory) MovementReport(ctx context.Context, start, end time.Time) (inventory.MovementReport, error) {
	return inventory.Summarize(start, end, s.entries), nil
}

func newTestRouter(t *testing.T, svc *stubService, inv stubInventory) http.Handler {
	t.Helper()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, inv, pkt, "PKR")
	h.WithNow(func() time.Time { return time.Date(2024, 6, 12, 10, 0, 0, 0, pkt) })
	r := chi.NewRouter()
	r.Route("/api/reports", h.MountRoutes)
	return r
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDailySalesJSON(t *testing.T) {
	svc := &stubService{sales: analytics.SalesAnalytics{TotalRevenue: 450, TotalOrders: 2, Items: []analytics.ItemSales{}}}
	rec := get(t, newTestRouter(t, svc, stubInventory{}), "/api/reports/sales/daily?date=2024-06-12")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get(DegradedHeader))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 450.0, body["totalRevenue"])
	require.Equal(t, "daily", body["period"])
}

func TestMonthlySalesDefaultsAndValidation(t *testing.T) {
	svc := &stubService{sales: analytics.EmptySales()}
	router := newTestRouter(t, svc, stubInventory{})

	rec := get(t, router, "/api/reports/sales/monthly")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2024, svc.lastYear)
	require.Equal(t, time.June, svc.lastMon)

	rec = get(t, router, "/api/reports/sales/monthly?month=13")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, router, "/api/reports/sales?from=2024-06-01")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportReadFailureDegrades(t *testing.T) {
	svc := &stubService{err: errors.New("store unavailable")}
	router := newTestRouter(t, svc, stubInventory{})

	rec := get(t, router, "/api/reports/profit-loss?period=weekly&date=2024-06-12")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get(DegradedHeader))

	var report analytics.ProfitLoss
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Zero(t, report.TotalRevenue)
	require.Len(t, report.Days, 7)

	rec = get(t, router, "/api/reports/sales/daily")
	require.Equal(t, "1", rec.Header().Get(DegradedHeader))
	require.Contains(t, rec.Body.String(), `"items":[]`)
}

type countingRecorder map[string]int

func (c countingRecorder) ReportDegraded(report string) { c[report]++ }

func TestDegradedReportsAreRecorded(t *testing.T) {
	svc := &stubService{err: errors.New("store unavailable")}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, stubInventory{}, pkt, "PKR")
	recorder := countingRecorder{}
	h.WithRecorder(recorder)
	r := chi.NewRouter()
	r.Route("/api/reports", h.MountRoutes)

	get(t, r, "/api/reports/sales/monthly?year=2024&month=6")
	get(t, r, "/api/reports/sales/monthly?year=2024&month=5")
	require.Equal(t, 2, recorder["monthly sales"])
}

func TestProfitLossRejectsUnknownPeriod(t *testing.T) {
	rec := get(t, newTestRouter(t, &stubService{}, stubInventory{}), "/api/reports/profit-loss?period=yearly")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportsStreamAttachments(t *testing.T) {
	cost := 1400.0
	inv := stubInventory{
		items: []inventory.Item{{ID: "cheese", Name: "Cheese", Quantity: 5, Unit: "kg", CostPrice: &cost}},
		entries: []inventory.LogEntry{
			{ItemID: "cheese", Type: inventory.MovementIn, QuantityChange: 5, QuantityAfter: 5, CreatedAt: time.Date(2024, 6, 12, 5, 0, 0, 0, time.UTC)},
		},
	}
	svc := &stubService{pl: analytics.ProfitLoss{TotalRevenue: 1000}}
	router := newTestRouter(t, svc, inv)

	rec := get(t, router, "/api/reports/inventory.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, contentTypeCSV, rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "inventory-2024-06-12.csv")
	require.True(t, strings.HasPrefix(rec.Body.String(), "Name,Quantity,Unit,Cost (PKR),Warn below\n"))

	rec = get(t, router, "/api/reports/movements.csv?from=2024-06-01&to=2024-06-30")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Cheese,in,+5,5,,2024-06-12 10:00")

	rec = get(t, router, "/api/reports/profit-loss.csv?period=daily&date=2024-06-12")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "profit-loss-daily-2024-06-12.csv")

	rec = get(t, router, "/api/reports/inventory.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestExportsAreRateLimited(t *testing.T) {
	router := newTestRouter(t, &stubService{}, stubInventory{})
	for i := 0; i < 10; i++ {
		rec := get(t, router, "/api/reports/inventory.csv")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := get(t, router, "/api/reports/inventory.csv")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = get(t, router, "/api/reports/sales/daily")
	require.Equal(t, http.StatusOK, rec.Code)
}
