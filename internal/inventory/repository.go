package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/zamzam-pos/zamzam-pos/internal/shared"
	"github.com/zamzam-pos/zamzam-pos/internal/store"
)

// Repository persists inventory data in the store.
type Repository struct {
	store *store.Store
}

// NewRepository constructs Repository.
func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetItem(ctx context.Context, id string) (Item, error)
	UpsertItem(ctx context.Context, item Item) error
	SetQuantity(ctx context.Context, id string, qty float64, at time.Time) error
	InsertLog(ctx context.Context, entry LogEntry) error
}

type txRepo struct {
	tx *sqlx.Tx
}

type itemRow struct {
	ID         string          `db:"id"`
	Name       string          `db:"name"`
	NameUrdu   sql.NullString  `db:"name_urdu"`
	Quantity   float64         `db:"quantity"`
	Unit       string          `db:"unit"`
	LowStockAt sql.NullFloat64 `db:"low_stock_at"`
	Category   sql.NullString  `db:"category"`
	CostPrice  sql.NullFloat64 `db:"cost_price"`
	Notes      sql.NullString  `db:"notes"`
	MaxStock   sql.NullFloat64 `db:"max_stock"`
	CreatedAt  sql.NullString  `db:"created_at"`
	UpdatedAt  sql.NullString  `db:"updated_at"`
}

type logRow struct {
	ID             string         `db:"id"`
	ItemID         string         `db:"item_id"`
	Type           string         `db:"type"`
	QuantityChange float64        `db:"quantity_change"`
	QuantityAfter  float64        `db:"quantity_after"`
	Reason         sql.NullString `db:"reason"`
	CreatedAt      sql.NullString `db:"created_at"`
}

const (
	selectItems = `SELECT id, name, name_urdu, quantity, unit, low_stock_at, category, cost_price, notes, max_stock, created_at, updated_at FROM inventory_items`
	selectLog   = `SELECT id, item_id, type, quantity_change, quantity_after, reason, created_at FROM inventory_log`
)

// WithTx runs fn in one store transaction; the image is committed once fn
// succeeds.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.store.Write(ctx, func(tx *sqlx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// Items lists every item grouped by category then name.
func (r *Repository) Items(ctx context.Context) ([]Item, error) {
	var rows []itemRow
	if err := r.store.Select(ctx, &rows, selectItems+` ORDER BY COALESCE(category, '') ASC, name ASC`); err != nil {
		return nil, fmt.Errorf("inventory: items: %w", err)
	}
	return decodeItems(rows), nil
}

// Item loads one item.
func (r *Repository) Item(ctx context.Context, id string) (Item, error) {
	var row itemRow
	err := r.store.Get(ctx, &row, selectItems+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("inventory: item: %w", err)
	}
	return row.decode(), nil
}

// LowStock lists items at or below their threshold, most urgent first.
func (r *Repository) LowStock(ctx context.Context) ([]Item, error) {
	var rows []itemRow
	if err := r.store.Select(ctx, &rows, selectItems+` WHERE low_stock_at IS NOT NULL AND quantity <= low_stock_at ORDER BY quantity ASC, name ASC`); err != nil {
		return nil, fmt.Errorf("inventory: low stock: %w", err)
	}
	return decodeItems(rows), nil
}

// Log lists movements newest first, optionally for one item.
func (r *Repository) Log(ctx context.Context, filter LogFilter) ([]LogEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	var rows []logRow
	var err error
	if filter.ItemID != "" {
		err = r.store.Select(ctx, &rows, selectLog+` WHERE item_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, filter.ItemID, limit)
	} else {
		err = r.store.Select(ctx, &rows, selectLog+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("inventory: log: %w", err)
	}
	return decodeLog(rows), nil
}

// LogByDateRange lists movements created within [start, end], newest first.
func (r *Repository) LogByDateRange(ctx context.Context, start, end time.Time) ([]LogEntry, error) {
	var rows []logRow
	err := r.store.Select(ctx, &rows, selectLog+` WHERE created_at >= ? AND created_at <= ? ORDER BY created_at DESC, rowid DESC`,
		shared.FormatTimestamp(start), shared.FormatTimestamp(end))
	if err != nil {
		return nil, fmt.Errorf("inventory: log by date range: %w", err)
	}
	return decodeLog(rows), nil
}

// Delete removes an item. Its log rows stay as the audit trail.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.store.Write(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrItemNotFound
		}
		return nil
	})
}

func (t *txRepo) GetItem(ctx context.Context, id string) (Item, error) {
	var row itemRow
	err := t.tx.GetContext(ctx, &row, selectItems+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	if err != nil {
		return Item{}, err
	}
	return row.decode(), nil
}

func (t *txRepo) UpsertItem(ctx context.Context, item Item) error {
	_, err := t.tx.NamedExecContext(ctx, `INSERT INTO inventory_items
			(id, name, name_urdu, quantity, unit, low_stock_at, category, cost_price, notes, max_stock, created_at, updated_at)
		VALUES (:id, :name, :name_urdu, :quantity, :unit, :low_stock_at, :category, :cost_price, :notes, :max_stock, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			name_urdu = excluded.name_urdu,
			quantity = excluded.quantity,
			unit = excluded.unit,
			low_stock_at = excluded.low_stock_at,
			category = excluded.category,
			cost_price = excluded.cost_price,
			notes = excluded.notes,
			max_stock = excluded.max_stock,
			updated_at = excluded.updated_at`, encodeItem(item))
	return err
}

func (t *txRepo) SetQuantity(ctx context.Context, id string, qty float64, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE inventory_items SET quantity = ?, updated_at = ? WHERE id = ?`,
		qty, shared.FormatTimestamp(at), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (t *txRepo) InsertLog(ctx context.Context, entry LogEntry) error {
	var reason sql.NullString
	if entry.Reason != "" {
		reason = sql.NullString{String: entry.Reason, Valid: true}
	}
	_, err := t.tx.ExecContext(ctx, `INSERT INTO inventory_log (id, item_id, type, quantity_change, quantity_after, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ItemID, string(entry.Type), entry.QuantityChange, entry.QuantityAfter, reason,
		shared.FormatTimestamp(entry.CreatedAt))
	return err
}

func encodeItem(item Item) itemRow {
	return itemRow{
		ID:         item.ID,
		Name:       item.Name,
		NameUrdu:   sql.NullString{String: item.NameUrdu, Valid: true},
		Quantity:   item.Quantity,
		Unit:       item.Unit,
		LowStockAt: nullFloat(item.LowStockAt),
		Category:   sql.NullString{String: item.Category, Valid: true},
		CostPrice:  nullFloat(item.CostPrice),
		Notes:      sql.NullString{String: item.Notes, Valid: true},
		MaxStock:   nullFloat(item.MaxStock),
		CreatedAt:  sql.NullString{String: shared.FormatTimestamp(item.CreatedAt), Valid: true},
		UpdatedAt:  sql.NullString{String: shared.FormatTimestamp(item.UpdatedAt), Valid: true},
	}
}

func (row itemRow) decode() Item {
	item := Item{
		ID:         row.ID,
		Name:       row.Name,
		NameUrdu:   row.NameUrdu.String,
		Quantity:   row.Quantity,
		Unit:       row.Unit,
		LowStockAt: floatPtr(row.LowStockAt),
		Category:   row.Category.String,
		CostPrice:  floatPtr(row.CostPrice),
		Notes:      row.Notes.String,
		MaxStock:   floatPtr(row.MaxStock),
	}
	item.CreatedAt = parseOptional(row.CreatedAt)
	item.UpdatedAt = parseOptional(row.UpdatedAt)
	return item
}

func (row logRow) decode() LogEntry {
	return LogEntry{
		ID:             row.ID,
		ItemID:         row.ItemID,
		Type:           MovementType(row.Type),
		QuantityChange: row.QuantityChange,
		QuantityAfter:  row.QuantityAfter,
		Reason:         row.Reason.String,
		CreatedAt:      parseOptional(row.CreatedAt),
	}
}

func decodeItems(rows []itemRow) []Item {
	out := make([]Item, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.decode())
	}
	return out
}

func decodeLog(rows []logRow) []LogEntry {
	out := make([]LogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.decode())
	}
	return out
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func parseOptional(v sql.NullString) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	t, err := shared.ParseTimestamp(v.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
