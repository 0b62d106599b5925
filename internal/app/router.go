package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	analytichttp "github.com/zamzam-pos/zamzam-pos/internal/analytics/http"
	"github.com/zamzam-pos/zamzam-pos/internal/expenses"
	"github.com/zamzam-pos/zamzam-pos/internal/inventory"
	"github.com/zamzam-pos/zamzam-pos/internal/menu"
	"github.com/zamzam-pos/zamzam-pos/internal/observability"
	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
	"github.com/zamzam-pos/zamzam-pos/internal/receipts"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Store            ImageStore
	ReceiptsHandler  *receipts.Handler
	MenuHandler      *menu.Handler
	InventoryHandler *inventory.Handler
	ExpensesHandler  *expenses.Handler
	AnalyticsHandler *analytichttp.Handler
	Metrics          *observability.Metrics
	Now              func() time.Time
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/shop", func(w http.ResponseWriter, r *http.Request) {
			httpx.JSON(w, http.StatusOK, params.Config.Shop())
		})
		if params.ReceiptsHandler != nil {
			api.Route("/receipts", params.ReceiptsHandler.MountRoutes)
		}
		if params.MenuHandler != nil {
			api.Route("/menu", params.MenuHandler.MountRoutes)
		}
		if params.InventoryHandler != nil {
			api.Route("/inventory", params.InventoryHandler.MountRoutes)
		}
		if params.ExpensesHandler != nil {
			api.Route("/expenses", params.ExpensesHandler.MountRoutes)
		}
		if params.AnalyticsHandler != nil {
			api.Route("/reports", params.AnalyticsHandler.MountRoutes)
		}
		if params.Store != nil {
			now := params.Now
			if now == nil {
				now = time.Now
			}
			db := &databaseHandler{logger: params.Logger, store: params.Store, loc: params.Config.Location(), now: now}
			api.Route("/database", db.mountRoutes)
		}
	})

	return r
}
