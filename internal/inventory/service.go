package inventory

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
	"github.com/zamzam-pos/zamzam-pos/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Items(ctx context.Context) ([]Item, error)
	Item(ctx context.Context, id string) (Item, error)
	LowStock(ctx context.Context) ([]Item, error)
	Log(ctx context.Context, filter LogFilter) ([]LogEntry, error)
	LogByDateRange(ctx context.Context, start, end time.Time) ([]LogEntry, error)
	Delete(ctx context.Context, id string) error
}

// Service coordinates inventory operations. Every quantity change goes
// through move so that it lands together with exactly one log entry.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Items lists every item.
func (s *Service) Items(ctx context.Context) ([]Item, error) {
	return s.repo.Items(ctx)
}

// Item loads one item.
func (s *Service) Item(ctx context.Context, id string) (Item, error) {
	return s.repo.Item(ctx, id)
}

// LowStock lists items at or below their threshold.
func (s *Service) LowStock(ctx context.Context) ([]Item, error) {
	return s.repo.LowStock(ctx)
}

// SaveItem creates or edits an item. A changed quantity is logged like any
// other movement.
func (s *Service) SaveItem(ctx context.Context, input ItemInput) (Item, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := httpx.Validate(input); err != nil {
		return Item{}, err
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = shared.Slug(input.Name)
	}
	if id == "" {
		id = "item"
	}
	unit := input.Unit
	if unit == "" {
		unit = DefaultUnit
	}

	var saved Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		now := s.now()
		current, err := tx.GetItem(ctx, id)
		isNew := errors.Is(err, ErrItemNotFound)
		if err != nil && !isNew {
			return err
		}
		item := Item{
			ID:         id,
			Name:       input.Name,
			NameUrdu:   input.NameUrdu,
			Quantity:   current.Quantity,
			Unit:       unit,
			LowStockAt: input.LowStockAt,
			Category:   strings.TrimSpace(input.Category),
			CostPrice:  input.CostPrice,
			Notes:      input.Notes,
			MaxStock:   input.MaxStock,
			CreatedAt:  current.CreatedAt,
			UpdatedAt:  now,
		}
		if isNew {
			item.Quantity = 0
			item.CreatedAt = now
		}
		if err := tx.UpsertItem(ctx, item); err != nil {
			return err
		}
		saved = item
		if input.Quantity == nil {
			return nil
		}
		reason := input.Reason
		if reason == "" {
			reason = ReasonEdited
			if isNew {
				reason = ReasonOpening
			}
		}
		qty, _, err := s.applyMove(ctx, tx, id, *input.Quantity, reason, false, now)
		saved.Quantity = qty
		return err
	})
	if err != nil {
		return Item{}, err
	}
	return saved, nil
}

// UpdateQuantity sets the quantity and logs the delta. It returns the
// logged entry, or nil when the quantity did not change.
func (s *Service) UpdateQuantity(ctx context.Context, id string, quantity float64, reason string) (*LogEntry, error) {
	return s.move(ctx, id, func(Item) (float64, error) { return quantity, nil }, reason, false)
}

// Receive adds stock and logs an in movement.
func (s *Service) Receive(ctx context.Context, id string, input ReceiveInput) (*LogEntry, error) {
	if err := httpx.Validate(input); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = ReasonReceived
	}
	return s.move(ctx, id, func(item Item) (float64, error) {
		return item.Quantity + input.Quantity, nil
	}, reason, false)
}

// ManualAdjustTo sets the quantity to a counted value.
func (s *Service) ManualAdjustTo(ctx context.Context, id string, input AdjustInput) (*LogEntry, error) {
	if err := httpx.Validate(input); err != nil {
		return nil, err
	}
	return s.move(ctx, id, func(Item) (float64, error) { return input.Quantity, nil }, strings.TrimSpace(input.Reason), input.Adjust)
}

// Log lists recent movements.
func (s *Service) Log(ctx context.Context, filter LogFilter) ([]LogEntry, error) {
	return s.repo.Log(ctx, filter)
}

// LogByDateRange lists movements within [start, end].
func (s *Service) LogByDateRange(ctx context.Context, start, end time.Time) ([]LogEntry, error) {
	return s.repo.LogByDateRange(ctx, start, end)
}

// MovementReport summarises movements within [start, end].
func (s *Service) MovementReport(ctx context.Context, start, end time.Time) (MovementReport, error) {
	entries, err := s.repo.LogByDateRange(ctx, start, end)
	if err != nil {
		return MovementReport{}, err
	}
	return Summarize(start, end, entries), nil
}

// Valuation is the stock value together with how many items contributed.
type Valuation struct {
	Value    decimal.Decimal `json:"value"`
	Counted  int             `json:"counted"`
	Excluded int             `json:"excluded"`
}

// StockValue sums quantity × cost price over items with a recorded cost.
func (s *Service) StockValue(ctx context.Context) (Valuation, error) {
	items, err := s.repo.Items(ctx)
	if err != nil {
		return Valuation{}, err
	}
	return StockValue(items), nil
}

// StockValue sums quantity × cost price; items without a cost are excluded
// rather than counted as zero.
func StockValue(items []Item) Valuation {
	v := Valuation{Value: decimal.Zero}
	for _, item := range items {
		if item.CostPrice == nil {
			v.Excluded++
			continue
		}
		v.Counted++
		v.Value = v.Value.Add(decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(*item.CostPrice)))
	}
	return v
}

// Delete removes an item; its movement history is kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) move(ctx context.Context, id string, target func(Item) (float64, error), reason string, adjust bool) (*LogEntry, error) {
	var entry *LogEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItem(ctx, id)
		if err != nil {
			return err
		}
		qty, err := target(item)
		if err != nil {
			return err
		}
		_, entry, err = s.applyMove(ctx, tx, id, qty, reason, adjust, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// applyMove writes the new quantity and its log entry inside tx. Zero
// deltas leave both untouched.
func (s *Service) applyMove(ctx context.Context, tx TxRepository, id string, qty float64, reason string, adjust bool, at time.Time) (float64, *LogEntry, error) {
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty < 0 {
		return 0, nil, ErrNegativeStock
	}
	item, err := tx.GetItem(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	delta := qty - item.Quantity
	if delta == 0 {
		return item.Quantity, nil, nil
	}
	if err := tx.SetQuantity(ctx, id, qty, at); err != nil {
		return 0, nil, err
	}
	entry := LogEntry{
		ID:             "log_" + uuid.NewString(),
		ItemID:         id,
		Type:           MovementFor(delta, adjust),
		QuantityChange: delta,
		QuantityAfter:  qty,
		Reason:         reason,
		CreatedAt:      at,
	}
	if err := tx.InsertLog(ctx, entry); err != nil {
		return 0, nil, err
	}
	return qty, &entry, nil
}
