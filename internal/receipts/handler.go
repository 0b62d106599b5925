package receipts

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
)

// Handler wires HTTP endpoints for receipts.
type Handler struct {
	logger  *slog.Logger
	service *Service
	loc     *time.Location
}

// NewHandler constructs receipts handler.
func NewHandler(logger *slog.Logger, service *Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{logger: logger, service: service, loc: loc}
}

// MountRoutes registers receipt routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleSave)
	r.Post("/checkout", h.handleCheckout)
	r.Get("/today", h.handleToday)
	r.Get("/monthly", h.handleMonthly)
	r.Get("/{id}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if from == "" && to == "" {
		list, err := h.service.All(r.Context())
		h.respondList(w, list, err)
		return
	}
	start, end, err := httpx.ParseRange(from, to, h.loc)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ByDateRange(r.Context(), start, end)
	h.respondList(w, list, err)
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Today(r.Context())
	h.respondList(w, list, err)
}

func (h *Handler) handleMonthly(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 || year > 9999 {
		httpx.RespondError(w, fmt.Errorf("%w: year must be a four digit number", httpx.ErrValidation))
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		httpx.RespondError(w, fmt.Errorf("%w: month must be 1-12", httpx.ErrValidation))
		return
	}
	list, err := h.service.Monthly(r.Context(), year, time.Month(month))
	h.respondList(w, list, err)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	var rec Receipt
	if err := httpx.DecodeJSON(r, &rec); err != nil {
		httpx.RespondError(w, err)
		return
	}
	saved, err := h.service.Save(r.Context(), rec)
	if err != nil {
		h.logger.Error("save receipt", slog.String("id", rec.ID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var input CheckoutInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.Checkout(r.Context(), input)
	if err != nil {
		h.logger.Warn("checkout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("receipt saved", slog.String("id", rec.ID), slog.Float64("total", rec.Total))
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) respondList(w http.ResponseWriter, list []Receipt, err error) {
	if err != nil {
		h.logger.Error("list receipts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Receipt{}
	}
	httpx.JSON(w, http.StatusOK, list)
}
