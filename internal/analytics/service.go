package analytics

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zamzam-pos/zamzam-pos/internal/expenses"
	"github.com/zamzam-pos/zamzam-pos/internal/inventory"
	"github.com/zamzam-pos/zamzam-pos/internal/receipts"
)

// ReceiptReader lists receipts sold within a window.
type ReceiptReader interface {
	ByDateRange(ctx context.Context, start, end time.Time) ([]receipts.Receipt, error)
}

// InventoryReader exposes the stock rows profit/loss needs.
type InventoryReader interface {
	Items(ctx context.Context) ([]inventory.Item, error)
	LogByDateRange(ctx context.Context, start, end time.Time) ([]inventory.LogEntry, error)
}

// ExpenseReader lists manual expenses dated within a window.
type ExpenseReader interface {
	ByDateRange(ctx context.Context, start, end time.Time) ([]expenses.Expense, error)
}

// Service fetches report inputs and runs them through the cache layer.
type Service struct {
	receipts  ReceiptReader
	inventory InventoryReader
	expenses  ExpenseReader
	cache     *Cache
	loc       *time.Location
	now       func() time.Time
}

// NewService wires the readers with an optional Cache helper.
func NewService(r ReceiptReader, inv InventoryReader, exp ExpenseReader, cache *Cache, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{receipts: r, inventory: inv, expenses: exp, cache: cache, loc: loc, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Location returns the zone used for day buckets.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Sales computes sales analytics over receipts dated within [start, end].
func (s *Service) Sales(ctx context.Context, start, end time.Time) (SalesAnalytics, error) {
	return fetch(ctx, s.cache, keySales(start, end), func(ctx context.Context) (SalesAnalytics, error) {
		list, err := s.receipts.ByDateRange(ctx, start, end)
		if err != nil {
			return SalesAnalytics{}, err
		}
		return ComputeSalesAnalytics(list), nil
	})
}

// DailySales covers the local day containing day.
func (s *Service) DailySales(ctx context.Context, day time.Time) (SalesAnalytics, Window, error) {
	w := ResolvePeriod(PeriodDaily, day, s.loc)
	sales, err := s.Sales(ctx, w.Start, w.End)
	return sales, w, err
}

// MonthlySales covers one calendar month.
func (s *Service) MonthlySales(ctx context.Context, year int, month time.Month) (SalesAnalytics, Window, error) {
	w := MonthWindow(year, month, s.loc)
	sales, err := s.Sales(ctx, w.Start, w.End)
	return sales, w, err
}

// ProfitLoss resolves the window of period around ref and reports it.
func (s *Service) ProfitLoss(ctx context.Context, period Period, ref time.Time) (ProfitLoss, error) {
	if ref.IsZero() {
		ref = s.now()
	}
	w := ResolvePeriod(period, ref, s.loc)
	return fetch(ctx, s.cache, keyProfitLoss(w), func(ctx context.Context) (ProfitLoss, error) {
		return s.loadProfitLoss(ctx, w)
	})
}

func (s *Service) loadProfitLoss(ctx context.Context, w Window) (ProfitLoss, error) {
	in := ProfitLossInput{Window: w, Location: s.loc}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		list, err := s.receipts.ByDateRange(ctx, w.Start, w.End)
		in.Receipts = list
		return err
	})
	g.Go(func() error {
		entries, err := s.inventory.LogByDateRange(ctx, w.Start, w.End)
		in.Log = entries
		return err
	})
	g.Go(func() error {
		items, err := s.inventory.Items(ctx)
		in.Items = items
		return err
	})
	g.Go(func() error {
		list, err := s.expenses.ByDateRange(ctx, w.Start, w.End)
		in.Expenses = list
		return err
	})

	if err := g.Wait(); err != nil {
		return ProfitLoss{}, err
	}
	return ComputeProfitLoss(in), nil
}

// fetch serves key from the cache, populating it with loader on a miss.
// Cache faults fall back to the loader so Redis trouble never hides data.
func fetch[T any](ctx context.Context, cache *Cache, key string, loader func(context.Context) (T, error)) (T, error) {
	if cache == nil {
		return loader(ctx)
	}
	versioned, err := cache.BuildKey(ctx, key)
	if err != nil {
		return loader(ctx)
	}
	var out T
	err = cache.FetchJSON(ctx, versioned, &out, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	var loadErr *LoadError
	switch {
	case err == nil:
		return out, nil
	case errors.As(err, &loadErr):
		return out, loadErr.Err
	default:
		return loader(ctx)
	}
}
