package menu

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the catalog.
type Handler struct {
	logger  *slog.Logger
	service *Service
	seeder  *Seeder
}

// NewHandler constructs menu handler.
func NewHandler(logger *slog.Logger, service *Service, seeder *Seeder) *Handler {
	return &Handler{logger: logger, service: service, seeder: seeder}
}

// MountRoutes registers menu routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleFullMenu)
	r.Get("/categories", h.handleCategories)
	r.Post("/categories", h.handleSaveCategory)
	r.Delete("/categories/{id}", h.handleDeleteCategory)
	r.Get("/categories/{id}/items", h.handleItems)
	r.Post("/items", h.handleSaveItem)
	r.Delete("/items/{id}", h.handleDeleteItem)
	r.Post("/seed", h.handleSeed)
}

func (h *Handler) handleFullMenu(w http.ResponseWriter, r *http.Request) {
	sections, err := h.service.FullMenu(r.Context())
	if err != nil {
		h.fail(w, "load menu", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sections)
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.Categories(r.Context())
	if err != nil {
		h.fail(w, "list categories", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cats)
}

func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ItemsByCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "list items", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) handleSaveCategory(w http.ResponseWriter, r *http.Request) {
	var input CategoryInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	cat, err := h.service.SaveCategory(r.Context(), input)
	if err != nil {
		h.fail(w, "save category", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cat)
}

func (h *Handler) handleSaveItem(w http.ResponseWriter, r *http.Request) {
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

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSeed(w http.ResponseWriter, r *http.Request) {
	seeded, err := h.seeder.SeedIfEmpty(r.Context())
	if err != nil {
		h.fail(w, "seed menu", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"seeded": seeded})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
