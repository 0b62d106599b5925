package receipts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/zamzam-pos/zamzam-pos/internal/store/storetest"
)

func newTestRouter(t *testing.T) (http.Handler, *Service) {
	t.Helper()
	s, _ := storetest.New(t)
	svc := NewService(NewRepository(s), time.UTC)
	svc.WithNow(func() time.Time { return time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC) })
	r := chi.NewRouter()
	r.Route("/api/receipts", NewHandler(storetest.Logger(), svc, time.UTC).MountRoutes)
	return r, svc
}

func TestCheckoutThenListToday(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"items":[{"id":"zinger","name":"Zinger Burger","price":150,"quantity":2}],"customerName":"Sara"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/receipts/checkout", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created Receipt
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	require.InDelta(t, 300, created.Total, 0.0001)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/receipts/today", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var today []Receipt
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&today))
	require.Len(t, today, 1)
	require.Equal(t, "Sara", today[0].CustomerName)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/receipts/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestListValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, target := range []string{
		"/api/receipts?from=2025-05-10",
		"/api/receipts?from=2025-05-10&to=nope",
		"/api/receipts/monthly?year=2025&month=13",
		"/api/receipts/ZZ404",
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		require.GreaterOrEqual(t, rr.Code, 400, target)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/receipts?from=2025-05-01&to=2025-05-31", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[]`, rr.Body.String())
}
