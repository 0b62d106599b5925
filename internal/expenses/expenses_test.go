package expenses

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
	"github.com/zamzam-pos/zamzam-pos/internal/store/storetest"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, _ := storetest.New(t)
	return NewService(NewRepository(s), time.UTC)
}

func TestSaveDefaultsAndRange(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	now := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return now })

	rent, err := svc.Save(ctx, Input{Date: "2025-06-01", Amount: 25000, Category: "Rent"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rent.ID, IDPrefix))

	today, err := svc.Save(ctx, Input{Amount: 300, Description: " ice "})
	require.NoError(t, err)
	require.Equal(t, "2025-06-15", today.Date)
	require.Equal(t, DefaultCategory, today.Category)
	require.Equal(t, "ice", today.Description)

	_, err = svc.Save(ctx, Input{Date: "2025-07-01", Amount: 10})
	require.NoError(t, err)

	june, err := svc.ByDateRange(ctx, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, june, 2)
	require.Equal(t, "2025-06-15", june[0].Date, "newest date first")
	require.Equal(t, "2025-06-01", june[1].Date)

	rent.Amount = 26000
	_, err = svc.Save(ctx, Input{ID: rent.ID, Date: rent.Date, Amount: rent.Amount, Category: rent.Category})
	require.NoError(t, err)
	june, err = svc.ByDateRange(ctx, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, june, 2)
	require.InDelta(t, 26000, june[1].Amount, 1e-9)

	require.NoError(t, svc.Delete(ctx, rent.ID))
	require.ErrorIs(t, svc.Delete(ctx, rent.ID), ErrExpenseNotFound)
}

func TestSaveValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	for _, in := range []Input{
		{Amount: 0},
		{Amount: -5},
		{Amount: 10, Date: "15/06/2025"},
		{Amount: 10, Category: "Fun"},
	} {
		_, err := svc.Save(ctx, in)
		require.ErrorIs(t, err, httpx.ErrValidation, "%+v", in)
	}
}

func TestExpenseRoutes(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/api/expenses", NewHandler(storetest.Logger(), newTestService(t), time.UTC).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(`{"date":"2025-06-02","amount":1200,"category":"Utilities"}`)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/expenses?from=2025-06-01&to=2025-06-30", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"Utilities"`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/expenses/exp_missing", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
