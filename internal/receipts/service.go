package receipts

import (
	"context"
	"sync"
	"time"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
	"github.com/zamzam-pos/zamzam-pos/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Save(ctx context.Context, rec Receipt) error
	ByDateRange(ctx context.Context, start, end time.Time) ([]Receipt, error)
	All(ctx context.Context) ([]Receipt, error)
	Get(ctx context.Context, id string) (Receipt, error)
}

// Service coordinates receipt capture and lookups.
type Service struct {
	repo RepositoryPort
	loc  *time.Location
	now  func() time.Time

	idMu   sync.Mutex
	lastMs int64
}

// NewService builds Service; day boundaries are taken in loc.
func NewService(repo RepositoryPort, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{repo: repo, loc: loc, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Checkout turns a finalised cart into a receipt, snapshotting the total.
func (s *Service) Checkout(ctx context.Context, input CheckoutInput) (Receipt, error) {
	if err := httpx.Validate(input); err != nil {
		return Receipt{}, err
	}
	now := s.now()
	rec := Receipt{
		ID:           s.nextID(now),
		Items:        input.Items,
		Total:        Subtotal(input.Items),
		Date:         now,
		CustomerName: input.CustomerName,
		CreatedAt:    now,
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return Receipt{}, err
	}
	return rec, nil
}

// Save stores a receipt produced elsewhere as-is. Missing id and date are
// filled from the clock.
func (s *Service) Save(ctx context.Context, rec Receipt) (Receipt, error) {
	now := s.now()
	if rec.ID == "" {
		rec.ID = s.nextID(now)
	}
	if rec.Date.IsZero() {
		rec.Date = now
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return Receipt{}, err
	}
	return rec, nil
}

// ByDateRange returns receipts sold within [start, end].
func (s *Service) ByDateRange(ctx context.Context, start, end time.Time) ([]Receipt, error) {
	return s.repo.ByDateRange(ctx, start, end)
}

// Today returns the receipts of the current local day.
func (s *Service) Today(ctx context.Context) ([]Receipt, error) {
	now := s.now()
	return s.repo.ByDateRange(ctx, shared.StartOfDay(now, s.loc), shared.EndOfDay(now, s.loc))
}

// Monthly returns the receipts of one calendar month.
func (s *Service) Monthly(ctx context.Context, year int, month time.Month) ([]Receipt, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return s.repo.ByDateRange(ctx, start, end)
}

// All returns every receipt.
func (s *Service) All(ctx context.Context) ([]Receipt, error) {
	return s.repo.All(ctx)
}

// Get loads one receipt.
func (s *Service) Get(ctx context.Context, id string) (Receipt, error) {
	return s.repo.Get(ctx, id)
}

// nextID derives ids from the millisecond clock, never handing out the same
// reading twice within this process.
func (s *Service) nextID(now time.Time) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	ms := now.UnixMilli()
	if ms <= s.lastMs {
		ms = s.lastMs + 1
	}
	s.lastMs = ms
	return FormatID(ms)
}
