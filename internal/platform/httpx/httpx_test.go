package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zamzam-pos/zamzam-pos/internal/store"
)

type sampleInput struct {
	Name     string  `json:"name" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
}

func TestValidateUsesJSONFieldNames(t *testing.T) {
	err := Validate(sampleInput{Quantity: -1})
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "name is required")
	require.Contains(t, err.Error(), "quantity must be at least 0")

	require.NoError(t, Validate(sampleInput{Name: "Cheese"}))
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Cheese","quantity":2}`))
	var in sampleInput
	require.NoError(t, DecodeAndValidate(req, &in))
	require.Equal(t, "Cheese", in.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	require.ErrorIs(t, DecodeAndValidate(req, &in), ErrValidation)
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("inventory: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("menu: %w", ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: boom", store.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: disk", store.ErrWriteFailed), http.StatusInternalServerError},
		{fmt.Errorf("%w: bad", store.ErrImageCorrupt), http.StatusUnprocessableEntity},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code, tc.err.Error())

		var problem ProblemDetail
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&problem))
		require.Equal(t, tc.status, problem.Status)
	}
}

func TestParseRange(t *testing.T) {
	start, end, err := ParseRange("2025-03-01", "2025-03-31", time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2025, 3, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC), end)

	_, _, err = ParseRange("2025-03-31", "2025-03-01", time.UTC)
	require.ErrorIs(t, err, ErrValidation)
	_, _, err = ParseRange("", "2025-03-01", time.UTC)
	require.ErrorIs(t, err, ErrValidation)
}
