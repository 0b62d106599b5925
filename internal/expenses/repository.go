package expenses

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/zamzam-pos/zamzam-pos/internal/shared"
	"github.com/zamzam-pos/zamzam-pos/internal/store"
)

// Repository persists expenses in the store.
type Repository struct {
	store *store.Store
}

// NewRepository constructs Repository.
func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

type expenseRow struct {
	ID          string         `db:"id"`
	Date        string         `db:"date"`
	Amount      float64        `db:"amount"`
	Description string         `db:"description"`
	Category    string         `db:"category"`
	CreatedAt   sql.NullString `db:"created_at"`
}

// ByDateRange lists expenses dated within [startDay, endDay] (YYYY-MM-DD),
// newest date first.
func (r *Repository) ByDateRange(ctx context.Context, startDay, endDay string) ([]Expense, error) {
	var rows []expenseRow
	err := r.store.Select(ctx, &rows, `SELECT id, date, amount,
			COALESCE(description, '') AS description,
			COALESCE(category, 'Other') AS category,
			created_at
		FROM expenses WHERE date >= ? AND date <= ? ORDER BY date DESC, created_at DESC, rowid DESC`, startDay, endDay)
	if err != nil {
		return nil, fmt.Errorf("expenses: by date range: %w", err)
	}
	out := make([]Expense, 0, len(rows))
	for _, row := range rows {
		e := Expense{ID: row.ID, Date: row.Date, Amount: row.Amount, Description: row.Description, Category: row.Category}
		if row.CreatedAt.Valid {
			if t, err := shared.ParseTimestamp(row.CreatedAt.String); err == nil {
				e.CreatedAt = t
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// Save upserts by id.
func (r *Repository) Save(ctx context.Context, e Expense) error {
	return r.store.Write(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO expenses (id, date, amount, description, category, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				date = excluded.date,
				amount = excluded.amount,
				description = excluded.description,
				category = excluded.category`,
			e.ID, e.Date, e.Amount, e.Description, e.Category, shared.FormatTimestamp(e.CreatedAt))
		return err
	})
}

// Delete removes one expense.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.store.Write(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrExpenseNotFound
		}
		return nil
	})
}
