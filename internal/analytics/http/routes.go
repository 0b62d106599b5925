package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers report endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.exportLimit, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/sales/daily", h.handleDailySales)
	r.Get("/sales/monthly", h.handleMonthlySales)
	r.Get("/sales", h.handleCustomSales)
	r.Get("/profit-loss", h.handleProfitLoss)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/profit-loss.csv", h.handleProfitLossCSV)
		gr.Get("/inventory.csv", h.handleInventoryCSV)
		gr.Get("/movements.csv", h.handleMovementsCSV)
		gr.Get("/inventory.xlsx", h.handleWorkbook)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
