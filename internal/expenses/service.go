package expenses

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
	"github.com/zamzam-pos/zamzam-pos/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	ByDateRange(ctx context.Context, startDay, endDay string) ([]Expense, error)
	Save(ctx context.Context, e Expense) error
	Delete(ctx context.Context, id string) error
}

// Service records manual expenses.
type Service struct {
	repo RepositoryPort
	loc  *time.Location
	now  func() time.Time
}

// NewService builds Service; dates are local to loc.
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

// Save validates and stores an expense, generating an id when absent.
func (s *Service) Save(ctx context.Context, input Input) (Expense, error) {
	input.Date = strings.TrimSpace(input.Date)
	if err := httpx.Validate(input); err != nil {
		return Expense{}, err
	}
	now := s.now()
	e := Expense{
		ID:          strings.TrimSpace(input.ID),
		Date:        input.Date,
		Amount:      input.Amount,
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		CreatedAt:   now,
	}
	if e.ID == "" {
		e.ID = IDPrefix + uuid.NewString()
	}
	if e.Date == "" {
		e.Date = shared.DayKey(now, s.loc)
	}
	if e.Category == "" {
		e.Category = DefaultCategory
	}
	if err := s.repo.Save(ctx, e); err != nil {
		return Expense{}, err
	}
	return e, nil
}

// ByDateRange lists expenses whose day falls within [start, end] in the
// service location.
func (s *Service) ByDateRange(ctx context.Context, start, end time.Time) ([]Expense, error) {
	return s.repo.ByDateRange(ctx, shared.DayKey(start, s.loc), shared.DayKey(end, s.loc))
}

// Delete removes one expense.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
