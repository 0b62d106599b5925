// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/zamzam-pos/zamzam-pos/internal/store"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
)

// RespondError maps domain and store errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, store.ErrImageCorrupt):
		Problem(w, http.StatusUnprocessableEntity, "Image Rejected", "the database image could not be read")
	case errors.Is(err, store.ErrStoreUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Store Unavailable", "the local database could not be started")
	case errors.Is(err, store.ErrWriteFailed):
		Problem(w, http.StatusInternalServerError, "Write Failed", "the change was not saved")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
