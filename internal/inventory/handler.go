package inventory

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
	"github.com/zamzam-pos/zamzam-pos/internal/shared"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
	loc     *time.Location
	money   *shared.Money
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service, loc *time.Location, money *shared.Money) *Handler {
	if loc == nil {
		loc = time.Local
	}
	if money == nil {
		money = shared.NewMoney(shared.DefaultCurrency)
	}
	return &Handler{logger: logger, service: service, loc: loc, money: money}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleItems)
	r.Post("/", h.handleSave)
	r.Get("/low-stock", h.handleLowStock)
	r.Get("/value", h.handleValue)
	r.Get("/log", h.handleLog)
	r.Get("/movements", h.handleMovements)
	r.Get("/{id}", h.handleGet)
	r.Delete("/{id}", h.handleDelete)
	r.Post("/{id}/receive", h.handleReceive)
	r.Post("/{id}/adjust", h.handleAdjust)
}

func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Items(r.Context())
	if err != nil {
		h.fail(w, "list items", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Item(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	var input ItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.SaveItem(r.Context(), input)
	if err != nil {
		h.fail(w, "save item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type lowStockResponse struct {
	Count int    `json:"count"`
	Items []Item `json:"items"`
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context())
	if err != nil {
		h.fail(w, "low stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lowStockResponse{Count: len(items), Items: items})
}

type valueResponse struct {
	Value    float64 `json:"value"`
	Display  string  `json:"display"`
	Counted  int     `json:"counted"`
	Excluded int     `json:"excluded"`
}

func (h *Handler) handleValue(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.StockValue(r.Context())
	if err != nil {
		h.fail(w, "stock value", err)
		return
	}
	value := v.Value.Round(2).InexactFloat64()
	httpx.JSON(w, http.StatusOK, valueResponse{
		Value:    value,
		Display:  h.money.Format(value),
		Counted:  v.Counted,
		Excluded: v.Excluded,
	})
}

func (h *Handler) handleLog(w http.ResponseWriter, r *http.Request) {
	filter := LogFilter{ItemID: r.URL.Query().Get("item")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 1000 {
			httpx.RespondError(w, fmt.Errorf("%w: limit must be 1-1000", httpx.ErrValidation))
			return
		}
		filter.Limit = limit
	}
	entries, err := h.service.Log(r.Context(), filter)
	if err != nil {
		h.fail(w, "inventory log", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	start, end, err := httpx.ParseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"), h.loc)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.MovementReport(r.Context(), start, end)
	if err != nil {
		h.fail(w, "movement report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	var input ReceiveInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.Receive(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.fail(w, "receive stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var input AdjustInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.ManualAdjustTo(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.fail(w, "adjust stock", err)
		return
	}
	if entry == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
