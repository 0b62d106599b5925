package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
	"github.com/zamzam-pos/zamzam-pos/internal/shared"
)

// MaxImageBytes bounds an uploaded database image.
const MaxImageBytes = 64 << 20

// ImageStore exports and replaces the full database image.
type ImageStore interface {
	ExportImage(ctx context.Context) ([]byte, error)
	ImportImage(ctx context.Context, image []byte) error
}

// databaseHandler serves the binary image download and re-import.
type databaseHandler struct {
	logger *slog.Logger
	store  ImageStore
	loc    *time.Location
	now    func() time.Time
}

func (h *databaseHandler) mountRoutes(r chi.Router) {
	r.Get("/export", h.handleExport)
	r.Post("/import", h.handleImport)
}

func (h *databaseHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	image, err := h.store.ExportImage(r.Context())
	if err != nil {
		h.logger.Error("export image", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	filename := fmt.Sprintf("zamzam-pos-%s.db", shared.DayKey(h.now(), h.loc))
	if err := httpx.Attachment(w, "application/x-sqlite3", filename, image); err != nil {
		h.logger.Warn("stream image", slog.Any("error", err))
	}
}

func (h *databaseHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	image, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Problem(w, http.StatusRequestEntityTooLarge, "Image too large", err.Error())
			return
		}
		httpx.RespondError(w, fmt.Errorf("%w: read image: %v", httpx.ErrValidation, err))
		return
	}
	if len(image) == 0 {
		httpx.RespondError(w, fmt.Errorf("%w: empty image", httpx.ErrValidation))
		return
	}
	if err := h.store.ImportImage(r.Context(), image); err != nil {
		h.logger.Warn("import image", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("database image imported", slog.Int("bytes", len(image)))
	w.WriteHeader(http.StatusNoContent)
}
