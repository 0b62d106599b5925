package receipts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/zamzam-pos/zamzam-pos/internal/shared"
	"github.com/zamzam-pos/zamzam-pos/internal/store"
)

// Repository persists receipts in the store.
type Repository struct {
	store *store.Store
}

// NewRepository constructs Repository.
func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

type receiptRow struct {
	ID            string         `db:"id"`
	ReceiptNumber string         `db:"receipt_number"`
	Items         string         `db:"items"`
	Total         float64        `db:"total"`
	Date          string         `db:"date"`
	CustomerName  sql.NullString `db:"customer_name"`
	CreatedAt     sql.NullString `db:"created_at"`
}

const selectReceipts = `SELECT id, receipt_number, items, total, date, customer_name, created_at FROM receipts`

// Save upserts rec by id; a re-save overwrites every field.
func (r *Repository) Save(ctx context.Context, rec Receipt) error {
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("receipts: encode items: %w", err)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	var customer sql.NullString
	if rec.CustomerName != "" {
		customer = sql.NullString{String: rec.CustomerName, Valid: true}
	}
	return r.store.Write(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO receipts (id, receipt_number, items, total, date, customer_name, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				receipt_number = excluded.receipt_number,
				items = excluded.items,
				total = excluded.total,
				date = excluded.date,
				customer_name = excluded.customer_name,
				created_at = excluded.created_at`,
			rec.ID, rec.ID, string(items), rec.Total,
			shared.FormatTimestamp(rec.Date), customer, shared.FormatTimestamp(created))
		return err
	})
}

// ByDateRange returns receipts whose sale time lies within [start, end],
// newest created first.
func (r *Repository) ByDateRange(ctx context.Context, start, end time.Time) ([]Receipt, error) {
	var rows []receiptRow
	err := r.store.Select(ctx, &rows, selectReceipts+` WHERE date >= ? AND date <= ? ORDER BY created_at DESC, rowid DESC`,
		shared.FormatTimestamp(start), shared.FormatTimestamp(end))
	if err != nil {
		return nil, fmt.Errorf("receipts: by date range: %w", err)
	}
	return decodeRows(rows)
}

// All returns every receipt, newest created first.
func (r *Repository) All(ctx context.Context) ([]Receipt, error) {
	var rows []receiptRow
	if err := r.store.Select(ctx, &rows, selectReceipts+` ORDER BY created_at DESC, rowid DESC`); err != nil {
		return nil, fmt.Errorf("receipts: all: %w", err)
	}
	return decodeRows(rows)
}

// Get loads one receipt by id.
func (r *Repository) Get(ctx context.Context, id string) (Receipt, error) {
	var row receiptRow
	err := r.store.Get(ctx, &row, selectReceipts+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Receipt{}, ErrReceiptNotFound
	}
	if err != nil {
		return Receipt{}, fmt.Errorf("receipts: get: %w", err)
	}
	return row.decode()
}

func decodeRows(rows []receiptRow) ([]Receipt, error) {
	out := make([]Receipt, 0, len(rows))
	for _, row := range rows {
		rec, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (row receiptRow) decode() (Receipt, error) {
	rec := Receipt{ID: row.ID, Total: row.Total, CustomerName: row.CustomerName.String}
	if err := json.Unmarshal([]byte(row.Items), &rec.Items); err != nil {
		return Receipt{}, fmt.Errorf("receipts: decode items of %s: %w", row.ID, err)
	}
	date, err := shared.ParseTimestamp(row.Date)
	if err != nil {
		return Receipt{}, fmt.Errorf("receipts: decode date of %s: %w", row.ID, err)
	}
	rec.Date = date
	if row.CreatedAt.Valid {
		if created, err := shared.ParseTimestamp(row.CreatedAt.String); err == nil {
			rec.CreatedAt = created
		}
	}
	return rec, nil
}
