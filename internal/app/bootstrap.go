package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/zamzam-pos/zamzam-pos/internal/analytics"
	analytichttp "github.com/zamzam-pos/zamzam-pos/internal/analytics/http"
	"github.com/zamzam-pos/zamzam-pos/internal/expenses"
	"github.com/zamzam-pos/zamzam-pos/internal/inventory"
	"github.com/zamzam-pos/zamzam-pos/internal/menu"
	"github.com/zamzam-pos/zamzam-pos/internal/observability"
	"github.com/zamzam-pos/zamzam-pos/internal/platform/kv"
	"github.com/zamzam-pos/zamzam-pos/internal/receipts"
	"github.com/zamzam-pos/zamzam-pos/internal/shared"
	"github.com/zamzam-pos/zamzam-pos/internal/store"
)

// Runtime owns the long-lived resources of one process.
type Runtime struct {
	Config  *Config
	Logger  *slog.Logger
	Store   *store.Store
	Metrics *observability.Metrics
	Cache   *analytics.Cache
	Seeder  *menu.Seeder

	closers []func() error
}

// Bootstrap opens the image channels and builds the store. The store itself
// opens on first use, so restore-backup reads the text backup before any
// commit can overwrite it. Services and handlers are built by Handler.
func Bootstrap(ctx context.Context, cfg *Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	images, err := kv.OpenBolt(cfg.StorePath)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, images.Close)

	var backup store.BackupChannel = kv.NewFileBackup(cfg.BackupPath)
	if cfg.BackupRedisAddr != "" {
		client, err := kv.DialRedis(ctx, cfg.BackupRedisAddr)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("app: backup redis: %w", err)
		}
		rt.closers = append(rt.closers, client.Close)
		backup = kv.NewRedisBackup(client, kv.BackupKey)
	}

	if cfg.CacheRedisAddr != "" {
		client, err := kv.DialRedis(ctx, cfg.CacheRedisAddr)
		if err != nil {
			logger.Warn("report cache disabled", slog.Any("error", err))
		} else {
			rt.closers = append(rt.closers, client.Close)
			rt.Cache = analytics.NewCache(client, cfg.CacheTTL)
		}
	}

	st, err := store.New(store.Options{
		Name:    images.Path(),
		Images:  images,
		Backup:  backup,
		Logger:  logger,
		Metrics: observability.NewStoreMetrics(rt.Metrics.Registerer()),
	})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Store = st
	rt.closers = append(rt.closers, st.Close)
	if rt.Cache != nil {
		st.OnCommit(rt.Cache.CommitHook(logger))
	}

	rt.Seeder = menu.NewSeeder(menu.NewRepository(st), logger)
	return rt, nil
}

// NewRuntime wraps an already opened store, used by tests and tools that
// bring their own image channel.
func NewRuntime(cfg *Config, logger *slog.Logger, st *store.Store, cache *analytics.Cache) *Runtime {
	if cache != nil {
		st.OnCommit(cache.CommitHook(logger))
	}
	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Store:   st,
		Metrics: observability.NewMetrics(),
		Cache:   cache,
		Seeder:  menu.NewSeeder(menu.NewRepository(st), logger),
	}
}

// Handler wires repositories, services and handlers into the router.
func (rt *Runtime) Handler() http.Handler {
	cfg, logger, loc := rt.Config, rt.Logger, rt.Config.Location()
	money := shared.NewMoney(cfg.Currency)

	receiptService := receipts.NewService(receipts.NewRepository(rt.Store), loc)
	menuService := menu.NewService(menu.NewRepository(rt.Store))
	inventoryService := inventory.NewService(inventory.NewRepository(rt.Store))
	expenseService := expenses.NewService(expenses.NewRepository(rt.Store), loc)

	analyticsService := analytics.NewService(receiptService, inventoryService, expenseService, rt.Cache, loc)
	analyticsHandler := analytichttp.NewHandler(logger, analyticsService, inventoryService, loc, money.Code())
	analyticsHandler.WithExportLimit(cfg.ExportsPerMinute)
	analyticsHandler.WithRecorder(rt.Metrics)

	return NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		Store:            rt.Store,
		ReceiptsHandler:  receipts.NewHandler(logger, receiptService, loc),
		MenuHandler:      menu.NewHandler(logger, menuService, rt.Seeder),
		InventoryHandler: inventory.NewHandler(logger, inventoryService, loc, money),
		ExpensesHandler:  expenses.NewHandler(logger, expenseService, loc),
		AnalyticsHandler: analyticsHandler,
		Metrics:          rt.Metrics,
	})
}

// SeedMenu loads the default catalog into an empty menu when enabled.
func (rt *Runtime) SeedMenu(ctx context.Context) error {
	if !rt.Config.SeedMenu {
		return nil
	}
	_, err := rt.Seeder.SeedIfEmpty(ctx)
	return err
}

// ListenForInvalidation adopts cache bumps published by other processes.
func (rt *Runtime) ListenForInvalidation(ctx context.Context) error {
	return rt.Cache.ListenForInvalidation(ctx, "")
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && !errors.Is(err, redis.ErrClosed) {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
